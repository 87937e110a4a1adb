package composite

import (
	"context"
	"testing"
	"time"

	"github.com/user/chanlog"
)

type fakeWriter struct{ id string }

func (f fakeWriter) Write(context.Context, string, any) ([]byte, error) { return nil, nil }
func (f fakeWriter) Writee() any                                        { return f.id }

func TestDefaultActiveIsLastChild(t *testing.T) {
	published := make(chan chanlog.Writer, 4)
	children := []Child{
		{ID: "a", Writer: chanlog.StartSpec{Immediate: fakeWriter{"a"}}},
		{ID: "b", Writer: chanlog.StartSpec{Immediate: fakeWriter{"b"}}},
	}
	co := New("composite1", children, 10*time.Millisecond, nil)
	co.Start(func(w chanlog.Writer) { published <- w })

	select {
	case w := <-published:
		if w == nil || w.Writee() != "b" {
			t.Fatalf("default active writer = %v, want child b", w)
		}
	case <-time.After(time.Second):
		t.Fatal("Start never published")
	}
}

func TestSetActiveRepublishes(t *testing.T) {
	published := make(chan chanlog.Writer, 8)
	children := []Child{
		{ID: "a", Writer: chanlog.StartSpec{Immediate: fakeWriter{"a"}}},
		{ID: "b", Writer: chanlog.StartSpec{Immediate: fakeWriter{"b"}}},
	}
	co := New("composite1", children, 10*time.Millisecond, nil)
	co.Start(func(w chanlog.Writer) { published <- w })
	<-published // default (b)

	if err := co.SetActive(1); err != nil {
		t.Fatal(err)
	}
	select {
	case w := <-published:
		if w.Writee() != "a" {
			t.Fatalf("after SetActive(1) published %v, want child a", w)
		}
	case <-time.After(time.Second):
		t.Fatal("SetActive never republished")
	}
}

func TestSetActiveOutOfRange(t *testing.T) {
	co := New("composite1", []Child{{ID: "a", Writer: chanlog.StartSpec{Immediate: fakeWriter{"a"}}}}, 0, nil)
	co.Start(func(chanlog.Writer) {})
	if err := co.SetActive(0); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
	if err := co.SetActive(2); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

func TestUnsetActivePublishesNil(t *testing.T) {
	published := make(chan chanlog.Writer, 4)
	co := New("composite1", []Child{{ID: "a", Writer: chanlog.StartSpec{Immediate: fakeWriter{"a"}}}}, 0, nil)
	co.Start(func(w chanlog.Writer) { published <- w })
	<-published

	co.UnsetActive()
	select {
	case w := <-published:
		if w != nil {
			t.Fatalf("UnsetActive published %v, want nil", w)
		}
	case <-time.After(time.Second):
		t.Fatal("UnsetActive never republished")
	}
}

func TestAsyncChildWaitTimeout(t *testing.T) {
	timedOut := make(chan string, 1)
	blocked := make(chan struct{})
	children := []Child{
		{ID: "slow", Writer: chanlog.StartSpec{Start: func(ctx context.Context, publish func(chanlog.Writer)) {
			<-blocked
			publish(fakeWriter{"slow"})
		}}},
	}
	co := New("composite1", children, 20*time.Millisecond, func(childID string) { timedOut <- childID })

	done := make(chan struct{})
	go func() {
		co.Start(func(chanlog.Writer) {})
		close(done)
	}()

	select {
	case id := <-timedOut:
		if id != "slow" {
			t.Fatalf("onWaitTimeout child = %q, want slow", id)
		}
	case <-time.After(time.Second):
		t.Fatal("onWaitTimeout never fired")
	}
	close(blocked)
	<-done
}

func TestAsyncChildWriterUpdateRepublishesWhenActive(t *testing.T) {
	published := make(chan chanlog.Writer, 8)
	var publishFn func(chanlog.Writer)
	children := []Child{
		{ID: "a", Writer: chanlog.StartSpec{Start: func(ctx context.Context, publish func(chanlog.Writer)) {
			publishFn = publish
			publish(fakeWriter{"a-v1"})
		}}},
	}
	co := New("composite1", children, 50*time.Millisecond, nil)
	co.Start(func(w chanlog.Writer) { published <- w })
	first := <-published
	if first.Writee() != "a-v1" {
		t.Fatalf("initial publish = %v, want a-v1", first)
	}

	publishFn(fakeWriter{"a-v2"})
	select {
	case w := <-published:
		if w.Writee() != "a-v2" {
			t.Fatalf("hot-swap publish = %v, want a-v2", w)
		}
	case <-time.After(time.Second):
		t.Fatal("writer_update never republished")
	}
}
