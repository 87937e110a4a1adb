// Package index implements the condition-indexed dispatch table: the
// keyed mapping from match-keys to (descendant_count, sorted sink-id list)
// that Select answers in near-constant time against, and that Register /
// Deregister maintain under a single-writer-many-readers discipline.
package index

import (
	"sort"
	"sync"

	"github.com/user/chanlog"
)

// entry is the (descendant_count, sorted sink-id list) pair the source
// protocol assigns one per match-key.
type entry struct {
	descendants int
	sinkIDs     []string
}

func (e *entry) empty() bool { return e.descendants == 0 && len(e.sinkIDs) == 0 }

// Index is the per-channel dispatch table. The zero value is not usable;
// construct with New. Safe for any number of concurrent Select callers
// against a single serialising Register/Deregister caller (the channel
// registry), per the source protocol's concurrency model.
type Index struct {
	mu      sync.RWMutex
	entries map[chanlog.MatchKey]*entry
	writers map[string]chanlog.Writer
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		entries: make(map[chanlog.MatchKey]*entry),
		writers: make(map[string]chanlog.Writer),
	}
}

// ancestors returns the strictly-less-specific keys that k's descendant
// count must be reflected in. (S,A,M) has ancestors (S,A) and (S); (S,A)
// and the module-scoped (S,M) extension both have the single ancestor (S);
// (S) has none. (S,M) is deliberately not an ancestor of (S,A,M): a module
// constraint given without an application is its own independent bucket,
// not a prefix of the full three-field key — see DESIGN.md.
func ancestors(k chanlog.MatchKey) []chanlog.MatchKey {
	switch {
	case k.Application != "" && k.Module != "":
		return []chanlog.MatchKey{
			{Severity: k.Severity, Application: k.Application},
			{Severity: k.Severity},
		}
	case k.Application != "" || k.Module != "":
		return []chanlog.MatchKey{{Severity: k.Severity}}
	default:
		return nil
	}
}

func insertSorted(ids []string, id string) []string {
	i := sort.SearchStrings(ids, id)
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeSorted(ids []string, id string) []string {
	i := sort.SearchStrings(ids, id)
	if i >= len(ids) || ids[i] != id {
		return ids
	}
	return append(ids[:i], ids[i+1:]...)
}

func (ix *Index) getOrCreate(k chanlog.MatchKey) *entry {
	e, ok := ix.entries[k]
	if !ok {
		e = &entry{}
		ix.entries[k] = e
	}
	return e
}

func (ix *Index) dropIfEmpty(k chanlog.MatchKey) {
	if e, ok := ix.entries[k]; ok && e.empty() {
		delete(ix.entries, k)
	}
}

// Register stores or updates sinkID's writer and re-indexes it from
// oldKeys to newKeys, touching only the keys that differ (Diff's added and
// removed sets) — common keys are left untouched, in particular their
// descendant counts are not churned.
func (ix *Index) Register(sinkID string, writer chanlog.Writer, newKeys, oldKeys []chanlog.MatchKey) {
	added, _, removed := chanlog.Diff(newKeys, oldKeys)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, k := range added {
		e := ix.getOrCreate(k)
		e.sinkIDs = insertSorted(e.sinkIDs, sinkID)
		for _, a := range ancestors(k) {
			ix.getOrCreate(a).descendants++
		}
	}
	for _, k := range removed {
		if e, ok := ix.entries[k]; ok {
			e.sinkIDs = removeSorted(e.sinkIDs, sinkID)
			ix.dropIfEmpty(k)
		}
		for _, a := range ancestors(k) {
			if e, ok := ix.entries[a]; ok {
				e.descendants--
				ix.dropIfEmpty(a)
			}
		}
	}

	if len(newKeys) == 0 {
		delete(ix.writers, sinkID)
	} else {
		ix.writers[sinkID] = writer
	}
}

// Deregister removes sinkID entirely: equivalent to Register(sinkID, nil,
// nil, oldKeys) followed by dropping the sink-id→writer mapping, exactly as
// the source protocol defines deregister in terms of register.
func (ix *Index) Deregister(sinkID string, oldKeys []chanlog.MatchKey) {
	ix.Register(sinkID, nil, nil, oldKeys)
}

// Reindex moves sinkID from oldKeys to newKeys exactly like Register, but
// never touches the sink-id→writer map: a condition change must not disturb
// a writer an out-of-band caller (the composite coordinator, via SetWriter)
// may have published since the sink was installed.
func (ix *Index) Reindex(sinkID string, newKeys, oldKeys []chanlog.MatchKey) {
	added, _, removed := chanlog.Diff(newKeys, oldKeys)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, k := range added {
		e := ix.getOrCreate(k)
		e.sinkIDs = insertSorted(e.sinkIDs, sinkID)
		for _, a := range ancestors(k) {
			ix.getOrCreate(a).descendants++
		}
	}
	for _, k := range removed {
		if e, ok := ix.entries[k]; ok {
			e.sinkIDs = removeSorted(e.sinkIDs, sinkID)
			ix.dropIfEmpty(k)
		}
		for _, a := range ancestors(k) {
			if e, ok := ix.entries[a]; ok {
				e.descendants--
				ix.dropIfEmpty(a)
			}
		}
	}
}

// SetWriter replaces sinkID's writer record in place without touching the
// index structure. This is how a composite sink coordinator hot-swaps the
// writer its parent sees without uninstalling and reinstalling the sink.
// A no-op if sinkID is not currently indexed.
func (ix *Index) SetWriter(sinkID string, writer chanlog.Writer) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.writers[sinkID]; ok {
		ix.writers[sinkID] = writer
	}
}

func mergeSorted(lists ...[]string) []string {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	if total == 0 {
		return nil
	}
	idx := make([]int, len(lists))
	out := make([]string, 0, total)
	for {
		best := -1
		bestVal := ""
		for li, l := range lists {
			if idx[li] >= len(l) {
				continue
			}
			if best == -1 || l[idx[li]] < bestVal {
				best = li
				bestVal = l[idx[li]]
			}
		}
		if best == -1 {
			break
		}
		if len(out) == 0 || out[len(out)-1] != bestVal {
			out = append(out, bestVal)
		}
		idx[best]++
	}
	return out
}

// Select resolves (severity, application, module) to the writers of every
// sink whose normalised condition contains at least one of (S), (S,A),
// (S,A,M), or the module-scoped (S,M) extension. A lookup against a never
// populated key returns nil rather than an error — emitters must be able
// to log during shutdown without synchronising with administrative code.
func (ix *Index) Select(sev chanlog.Severity, application, module string) []chanlog.Writer {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	k1 := chanlog.MatchKey{Severity: sev}
	e1 := ix.entries[k1]

	var ids []string
	switch {
	case e1 == nil:
		// no entry at all: nothing matches this severity.
	case e1.descendants == 0:
		ids = e1.sinkIDs
	default:
		var l1 []string
		if e1 != nil {
			l1 = e1.sinkIDs
		}
		var l2, l3, lMod []string
		var c2 int
		if application != "" {
			if e2, ok := ix.entries[chanlog.MatchKey{Severity: sev, Application: application}]; ok {
				l2 = e2.sinkIDs
				c2 = e2.descendants
			}
		}
		if module != "" {
			if eMod, ok := ix.entries[chanlog.MatchKey{Severity: sev, Module: module}]; ok {
				lMod = eMod.sinkIDs
			}
		}
		if c2 > 0 && application != "" && module != "" {
			if e3, ok := ix.entries[chanlog.MatchKey{Severity: sev, Application: application, Module: module}]; ok {
				l3 = e3.sinkIDs
			}
		}
		ids = mergeSorted(l1, l2, l3, lMod)
	}

	if len(ids) == 0 {
		return nil
	}
	out := make([]chanlog.Writer, 0, len(ids))
	for _, id := range ids {
		if w, ok := ix.writers[id]; ok && w != nil {
			out = append(out, w)
		}
	}
	return out
}

// SelectIDs is Select's sink-id-only counterpart, used by tests asserting
// the "select correctness" property without needing real writers wired up.
func (ix *Index) SelectIDs(sev chanlog.Severity, application, module string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	k1 := chanlog.MatchKey{Severity: sev}
	e1 := ix.entries[k1]
	if e1 == nil {
		return nil
	}
	if e1.descendants == 0 {
		return append([]string(nil), e1.sinkIDs...)
	}
	var l2, l3, lMod []string
	var c2 int
	if application != "" {
		if e2, ok := ix.entries[chanlog.MatchKey{Severity: sev, Application: application}]; ok {
			l2 = e2.sinkIDs
			c2 = e2.descendants
		}
	}
	if module != "" {
		if eMod, ok := ix.entries[chanlog.MatchKey{Severity: sev, Module: module}]; ok {
			lMod = eMod.sinkIDs
		}
	}
	if c2 > 0 && application != "" && module != "" {
		if e3, ok := ix.entries[chanlog.MatchKey{Severity: sev, Application: application, Module: module}]; ok {
			l3 = e3.sinkIDs
		}
	}
	return mergeSorted(e1.sinkIDs, l2, l3, lMod)
}

// DescendantCount exposes an entry's descendant_count for property tests
// (the invariant in spec §8). Returns 0 for an absent key.
func (ix *Index) DescendantCount(k chanlog.MatchKey) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if e, ok := ix.entries[k]; ok {
		return e.descendants
	}
	return 0
}

// Snapshot returns a structural copy of the entry table for round-trip
// equality assertions ("install then uninstall restores the index to its
// pre-state"). Keys with an empty entry never appear, by construction.
func (ix *Index) Snapshot() map[chanlog.MatchKey][]string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[chanlog.MatchKey][]string, len(ix.entries))
	for k, e := range ix.entries {
		out[k] = append([]string(nil), e.sinkIDs...)
	}
	return out
}
