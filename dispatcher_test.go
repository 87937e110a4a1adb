package chanlog

import (
	"context"
	"testing"
)

func TestDispatchWritesToEveryMatch(t *testing.T) {
	mgr := newManager()
	mgr.CreateChannel("ch1")

	w1 := &testWriter{id: "s1", received: make(chan []byte, 1)}
	w2 := &testWriter{id: "s2", received: make(chan []byte, 1)}
	installSink(t, mgr, "ch1", "s1", Threshold(Info), w1)
	installSink(t, mgr, "ch1", "s2", Threshold(Info), w2)

	n := mgr.Dispatch(context.Background(), "ch1", Warning, "", "", "text", []byte("hello"))
	if n != 2 {
		t.Fatalf("Dispatch returned %d, want 2", n)
	}
	if got := <-w1.received; string(got) != "hello" {
		t.Fatalf("w1 received %q, want hello", got)
	}
	if got := <-w2.received; string(got) != "hello" {
		t.Fatalf("w2 received %q, want hello", got)
	}
}

func TestDispatchIsolatesWriterFailure(t *testing.T) {
	mgr := newManager()
	mgr.CreateChannel("ch1")

	failing := &testWriter{id: "bad", fail: true}
	ok := &testWriter{id: "good", received: make(chan []byte, 1)}
	installSink(t, mgr, "ch1", "bad", Threshold(Info), failing)
	installSink(t, mgr, "ch1", "good", Threshold(Info), ok)

	n := mgr.Dispatch(context.Background(), "ch1", Info, "", "", "text", []byte("x"))
	if n != 1 {
		t.Fatalf("Dispatch returned %d, want 1 (one writer should have failed)", n)
	}
	select {
	case got := <-ok.received:
		if string(got) != "x" {
			t.Fatalf("good writer received %q, want x", got)
		}
	default:
		t.Fatal("good writer never ran despite the other writer's failure")
	}
}

func TestDispatchUnknownChannelIsNoop(t *testing.T) {
	mgr := newManager()
	n := mgr.Dispatch(context.Background(), "missing", Info, "", "", "text", []byte("x"))
	if n != 0 {
		t.Fatalf("Dispatch on missing channel returned %d, want 0", n)
	}
}
