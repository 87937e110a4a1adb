package chanlog

import (
	"reflect"
	"testing"
)

func TestThresholdExpandsToMaxSeverity(t *testing.T) {
	keys, err := Normalize(Threshold(Critical))
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != int(MaxSeverity-Critical)+1 {
		t.Fatalf("got %d keys, want %d", len(keys), int(MaxSeverity-Critical)+1)
	}
	for _, k := range keys {
		if k.Severity < Critical {
			t.Errorf("threshold leaked a key below Critical: %v", k)
		}
	}
}

func TestRangeOfInclusive(t *testing.T) {
	keys, err := Normalize(RangeOf(Warning, Error))
	if err != nil {
		t.Fatal(err)
	}
	want := []Severity{Warning, Error}
	got := make([]Severity, len(keys))
	for i, k := range keys {
		got[i] = k.Severity
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RangeOf(Warning, Error) = %v, want %v", got, want)
	}
}

func TestSeveritySetNoExpansion(t *testing.T) {
	keys, err := Normalize(SeveritySet(Debug, Error, Error, Alert))
	if err != nil {
		t.Fatal(err)
	}
	want := []Severity{Debug, Error, Alert}
	got := make([]Severity, len(keys))
	for i, k := range keys {
		got[i] = k.Severity
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SeveritySet dedup/sort = %v, want %v", got, want)
	}
}

func TestNormalizeInvalidRange(t *testing.T) {
	if _, err := Normalize(RangeOf(Error, Debug)); err == nil {
		t.Fatal("expected error for low > high")
	}
}

func TestNormalizeEmptySet(t *testing.T) {
	if _, err := Normalize(SeveritySet()); err == nil {
		t.Fatal("expected error for empty severity set")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	keys, err := Normalize(Threshold(Notice).WithApplication("billing").WithModule("ledger"))
	if err != nil {
		t.Fatal(err)
	}

	var severities []Severity
	for _, k := range keys {
		severities = append(severities, k.Severity)
	}
	reKeys, err := Normalize(SeveritySet(severities...).WithApplication("billing").WithModule("ledger"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(keys, reKeys) {
		t.Fatalf("normalization not idempotent: %v != %v", keys, reKeys)
	}
}

func TestDiffPartition(t *testing.T) {
	oldKeys, _ := Normalize(RangeOf(Info, Warning))
	newKeys, _ := Normalize(RangeOf(Notice, Error))

	added, common, removed := Diff(newKeys, oldKeys)

	union := map[MatchKey]bool{}
	for _, k := range added {
		union[k] = true
	}
	for _, k := range common {
		union[k] = true
	}
	for _, k := range removed {
		union[k] = true
	}

	expected := map[MatchKey]bool{}
	for _, k := range oldKeys {
		expected[k] = true
	}
	for _, k := range newKeys {
		expected[k] = true
	}
	if !reflect.DeepEqual(union, expected) {
		t.Fatalf("Diff union mismatch: got %v want %v", union, expected)
	}

	for _, k := range added {
		for _, k2 := range removed {
			if k == k2 {
				t.Fatalf("key %v appears in both added and removed", k)
			}
		}
	}
	for _, k := range common {
		if !containsKey(oldKeys, k) {
			t.Fatalf("common key %v not present in oldKeys", k)
		}
	}
}

func containsKey(keys []MatchKey, k MatchKey) bool {
	for _, k2 := range keys {
		if k == k2 {
			return true
		}
	}
	return false
}

func TestMatchKeyArity(t *testing.T) {
	cases := []struct {
		k    MatchKey
		want int
	}{
		{MatchKey{Severity: Info}, 1},
		{MatchKey{Severity: Info, Application: "a"}, 2},
		{MatchKey{Severity: Info, Module: "m"}, 2},
		{MatchKey{Severity: Info, Application: "a", Module: "m"}, 3},
	}
	for _, c := range cases {
		if got := c.k.Arity(); got != c.want {
			t.Errorf("Arity(%v) = %d, want %d", c.k, got, c.want)
		}
	}
}
