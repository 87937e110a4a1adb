package index

import (
	"context"
	"reflect"
	"sort"
	"testing"

	"github.com/user/chanlog"
)

func normalize(t *testing.T, c chanlog.Condition) []chanlog.MatchKey {
	t.Helper()
	keys, err := chanlog.Normalize(c)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return keys
}

func sortedIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

// TestFiveSinkScenario replays a routing layout with five sinks, covering
// every match-key shape: a bare severity threshold, an application-scoped
// threshold, a module-scoped threshold, a fully-scoped threshold, and a
// discrete severity set.
func TestFiveSinkScenario(t *testing.T) {
	ix := New()

	s1Keys := normalize(t, chanlog.Threshold(chanlog.Warning))
	ix.Register("s1", nil, s1Keys, nil)

	s2Keys := normalize(t, chanlog.Threshold(chanlog.Error).WithApplication("billing"))
	ix.Register("s2", nil, s2Keys, nil)

	s3Keys := normalize(t, chanlog.SeveritySet(chanlog.Debug, chanlog.Info))
	ix.Register("s3", nil, s3Keys, nil)

	s4Keys := normalize(t, chanlog.Threshold(chanlog.Critical).WithApplication("billing").WithModule("ledger"))
	ix.Register("s4", nil, s4Keys, nil)

	s5Keys := normalize(t, chanlog.Threshold(chanlog.Notice).WithModule("ledger"))
	ix.Register("s5", nil, s5Keys, nil)

	cases := []struct {
		name        string
		sev         chanlog.Severity
		application string
		module      string
		want        []string
	}{
		{"debug any/any", chanlog.Debug, "", "", []string{"s3"}},
		{"warning billing/ledger", chanlog.Warning, "billing", "ledger", []string{"s1", "s5"}},
		{"critical billing/ledger", chanlog.Critical, "billing", "ledger", []string{"s1", "s2", "s4", "s5"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := sortedIDs(ix.SelectIDs(c.sev, c.application, c.module))
			want := sortedIDs(c.want)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("SelectIDs(%v, %q, %q) = %v, want %v", c.sev, c.application, c.module, got, want)
			}
		})
	}
}

func TestDescendantCountInvariant(t *testing.T) {
	ix := New()
	keys := normalize(t, chanlog.Threshold(chanlog.Warning).WithApplication("billing"))
	ix.Register("s1", nil, keys, nil)

	bare := chanlog.MatchKey{Severity: chanlog.Warning}
	if got := ix.DescendantCount(bare); got != 1 {
		t.Fatalf("DescendantCount(bare) = %d, want 1", got)
	}

	ix.Deregister("s1", keys)
	if got := ix.DescendantCount(bare); got != 0 {
		t.Fatalf("DescendantCount(bare) after deregister = %d, want 0", got)
	}
}

func TestSelectUnknownKeyReturnsNil(t *testing.T) {
	ix := New()
	if got := ix.Select(chanlog.Debug, "nope", "nope"); got != nil {
		t.Fatalf("Select on empty index = %v, want nil", got)
	}
}

func TestRegisterDeregisterRoundTrip(t *testing.T) {
	ix := New()
	before := ix.Snapshot()

	keys := normalize(t, chanlog.Threshold(chanlog.Info).WithApplication("svc").WithModule("mod"))
	ix.Register("s1", nil, keys, nil)
	ix.Deregister("s1", keys)

	after := ix.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("index snapshot did not round-trip: before=%v after=%v", before, after)
	}
}

func TestSetWriterHotSwap(t *testing.T) {
	ix := New()
	keys := normalize(t, chanlog.Threshold(chanlog.Info))

	ix.Register("s1", nil, keys, nil)
	if got := ix.Select(chanlog.Info, "", ""); len(got) != 0 {
		t.Fatalf("expected nil writer before SetWriter, got %v", got)
	}

	fake := fakeWriter{id: "w1"}
	ix.SetWriter("s1", fake)
	got := ix.Select(chanlog.Info, "", "")
	if len(got) != 1 || got[0] != fake {
		t.Fatalf("SetWriter did not take effect: %v", got)
	}

	ix.SetWriter("nonexistent", fake)
}

// TestReindexPreservesSetWriter covers a composite sink's writer (published
// out-of-band via SetWriter, never through Register) surviving a condition
// change: Reindex must move the sink's match-keys without touching the
// writer map the way Register would.
func TestReindexPreservesSetWriter(t *testing.T) {
	ix := New()
	oldKeys := normalize(t, chanlog.Threshold(chanlog.Warning))
	ix.Register("s1", nil, oldKeys, nil)

	fake := fakeWriter{id: "composite-child"}
	ix.SetWriter("s1", fake)
	if got := ix.Select(chanlog.Warning, "", ""); len(got) != 1 || got[0] != fake {
		t.Fatalf("SetWriter did not take effect before reindex: %v", got)
	}

	newKeys := normalize(t, chanlog.Threshold(chanlog.Critical))
	ix.Reindex("s1", newKeys, oldKeys)

	if got := ix.Select(chanlog.Warning, "", ""); len(got) != 0 {
		t.Fatalf("sink still matches old condition after Reindex: %v", got)
	}
	got := ix.Select(chanlog.Critical, "", "")
	if len(got) != 1 || got[0] != fake {
		t.Fatalf("Reindex dropped the SetWriter-published writer: %v", got)
	}
}

type fakeWriter struct{ id string }

func (fakeWriter) Write(_ context.Context, _ string, _ any) ([]byte, error) { return nil, nil }
func (fakeWriter) Writee() any                                             { return nil }
