package chanlog

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testWriter struct {
	id       string
	received chan []byte
	fail     bool
}

func (w *testWriter) Write(_ context.Context, _ string, data any) ([]byte, error) {
	if w.fail {
		return nil, errors.New("write failed")
	}
	payload, _ := data.([]byte)
	if w.received != nil {
		w.received <- payload
	}
	return payload, nil
}

func (w *testWriter) Writee() any { return w.id }

type testDiag struct {
	reports chan Diagnostic
}

func (d *testDiag) Report(diag Diagnostic) {
	if d.reports != nil {
		d.reports <- diag
	}
}

func newManager() *Manager {
	return NewManager(&testDiag{reports: make(chan Diagnostic, 16)})
}

func installSink(t *testing.T, mgr *Manager, channelID, sinkID string, cond Condition, w Writer) {
	t.Helper()
	_, err := mgr.InstallSink(channelID, SinkHandle{ID: sinkID, Condition: cond, Writer: StartSpec{Immediate: w}}, InstallOptions{})
	if err != nil {
		t.Fatalf("install %s: %v", sinkID, err)
	}
}

func TestManagerChannelLifecycle(t *testing.T) {
	mgr := newManager()
	if err := mgr.CreateChannel("ch1"); err != nil {
		t.Fatal(err)
	}
	if err := mgr.CreateChannel("ch1"); !errors.Is(err, ErrAlreadyInstalled) {
		t.Fatalf("duplicate CreateChannel error = %v, want ErrAlreadyInstalled", err)
	}
	if got := mgr.ListChannels(); len(got) != 1 || got[0] != "ch1" {
		t.Fatalf("ListChannels = %v, want [ch1]", got)
	}
	if err := mgr.DeleteChannel("ch1"); err != nil {
		t.Fatal(err)
	}
	if err := mgr.DeleteChannel("ch1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteChannel of missing channel error = %v, want ErrNotFound", err)
	}
}

func TestManagerFiveSinkRouting(t *testing.T) {
	mgr := newManager()
	if err := mgr.CreateChannel("ch1"); err != nil {
		t.Fatal(err)
	}

	installSink(t, mgr, "ch1", "s1", Threshold(Warning), &testWriter{id: "s1"})
	installSink(t, mgr, "ch1", "s2", Threshold(Error).WithApplication("billing"), &testWriter{id: "s2"})
	installSink(t, mgr, "ch1", "s3", SeveritySet(Debug, Info), &testWriter{id: "s3"})
	installSink(t, mgr, "ch1", "s4", Threshold(Critical).WithApplication("billing").WithModule("ledger"), &testWriter{id: "s4"})
	installSink(t, mgr, "ch1", "s5", Threshold(Notice).WithModule("ledger"), &testWriter{id: "s5"})

	idsOf := func(writers []Writer) map[string]bool {
		out := map[string]bool{}
		for _, w := range writers {
			out[w.Writee().(string)] = true
		}
		return out
	}

	got := idsOf(mgr.Select("ch1", Debug, "", ""))
	if len(got) != 1 || !got["s3"] {
		t.Fatalf("Select(debug) = %v, want {s3}", got)
	}

	got = idsOf(mgr.Select("ch1", Warning, "billing", "ledger"))
	want := map[string]bool{"s1": true, "s5": true}
	if len(got) != len(want) || got["s1"] != want["s1"] || got["s5"] != want["s5"] {
		t.Fatalf("Select(warning, billing, ledger) = %v, want %v", got, want)
	}

	got = idsOf(mgr.Select("ch1", Critical, "billing", "ledger"))
	want = map[string]bool{"s1": true, "s2": true, "s4": true, "s5": true}
	for id := range want {
		if !got[id] {
			t.Fatalf("Select(critical, billing, ledger) = %v, missing %s", got, id)
		}
	}
}

func TestManagerInstallCollisionIfExistsError(t *testing.T) {
	mgr := newManager()
	mgr.CreateChannel("ch1")
	installSink(t, mgr, "ch1", "s1", Threshold(Info), &testWriter{id: "s1"})

	_, err := mgr.InstallSink("ch1", SinkHandle{ID: "s1", Condition: Threshold(Info), Writer: StartSpec{Immediate: &testWriter{id: "s1-b"}}}, InstallOptions{})
	var aie *AlreadyInstalledError
	if !errors.As(err, &aie) {
		t.Fatalf("expected AlreadyInstalledError, got %v", err)
	}
}

func TestManagerProcessLifetime(t *testing.T) {
	mgr := newManager()
	mgr.CreateChannel("ch1")
	ctx, cancel := context.WithCancel(context.Background())

	_, err := mgr.InstallSink("ch1", SinkHandle{
		ID:        "s1",
		Condition: Threshold(Info),
		Writer:    StartSpec{Immediate: &testWriter{id: "s1"}},
	}, InstallOptions{Lifetime: Lifetime{Process: ctx}})
	if err != nil {
		t.Fatal(err)
	}

	cancel()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := mgr.FindSink("ch1", "s1"); errors.Is(err, ErrNotFound) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("sink was not uninstalled after its process context was cancelled")
}

func TestManagerDurationLifetime(t *testing.T) {
	mgr := newManager()
	mgr.CreateChannel("ch1")

	_, err := mgr.InstallSink("ch1", SinkHandle{
		ID:        "s1",
		Condition: Threshold(Info),
		Writer:    StartSpec{Immediate: &testWriter{id: "s1"}},
	}, InstallOptions{Lifetime: Lifetime{Duration: 20}})
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := mgr.FindSink("ch1", "s1"); errors.Is(err, ErrNotFound) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("sink was not uninstalled after its duration lifetime elapsed")
}

func TestManagerSetCondition(t *testing.T) {
	mgr := newManager()
	mgr.CreateChannel("ch1")
	installSink(t, mgr, "ch1", "s1", Threshold(Info), &testWriter{id: "s1"})

	if _, err := mgr.SetCondition("ch1", "s1", Threshold(Critical)); err != nil {
		t.Fatal(err)
	}
	if got := mgr.Select("ch1", Info, "", ""); len(got) != 0 {
		t.Fatalf("sink still matches old condition: %v", got)
	}
	if got := mgr.Select("ch1", Critical, "", ""); len(got) != 1 {
		t.Fatalf("sink does not match new condition: %v", got)
	}
}
