package chanlog

import "sort"

// conditionKind distinguishes the three ways a Condition's severity
// selection can be expressed. A bare Severity is folded into Range at
// construction time (kindRange with High pinned to MaxSeverity), so there
// are really only two runtime shapes: a range and an explicit set.
type conditionKind int

const (
	kindRange conditionKind = iota
	kindSet
)

// Condition is a predicate over (severity, application, module). Build one
// with Threshold, RangeOf, or SeveritySet, then optionally narrow it with
// WithApplication/WithModule. An empty Application or Module means "any".
type Condition struct {
	kind       conditionKind
	low, high  Severity
	severities []Severity

	Application string
	Module      string
}

// Threshold builds a condition matching s and everything more severe than s
// (e.g. Threshold(Notice) matches notice, warning, error, ... emergency).
// This is the meaning of a bare severity value in the source protocol: an
// installed handler at a given level receives that level and worse.
func Threshold(s Severity) Condition {
	return RangeOf(s, MaxSeverity)
}

// RangeOf builds a condition matching every severity in [low, high] inclusive.
func RangeOf(low, high Severity) Condition {
	return Condition{kind: kindRange, low: low, high: high}
}

// SeveritySet builds a condition matching exactly the given severities, with
// no expansion to neighboring levels.
func SeveritySet(severities ...Severity) Condition {
	cp := make([]Severity, len(severities))
	copy(cp, severities)
	return Condition{kind: kindSet, severities: cp}
}

// WithApplication narrows the condition to a specific application name.
func (c Condition) WithApplication(application string) Condition {
	c.Application = application
	return c
}

// WithModule narrows the condition to a specific module name. A module
// constraint may be present without an application constraint (see
// MatchKey / the index's module-scoped bucket).
func (c Condition) WithModule(module string) Condition {
	c.Module = module
	return c
}

func (c Condition) Validate() error {
	switch c.kind {
	case kindRange:
		if !c.low.valid() || !c.high.valid() {
			return &InvalidArgumentError{Field: "condition.severity", Reason: "severity out of range"}
		}
		if c.low > c.high {
			return &InvalidArgumentError{Field: "condition.severity", Reason: "low severity after high severity"}
		}
	case kindSet:
		if len(c.severities) == 0 {
			return &InvalidArgumentError{Field: "condition.severity", Reason: "empty severity set"}
		}
		for _, s := range c.severities {
			if !s.valid() {
				return &InvalidArgumentError{Field: "condition.severity", Reason: "severity out of range"}
			}
		}
	default:
		return &InvalidArgumentError{Field: "condition.severity", Reason: "unknown condition kind"}
	}
	return nil
}

// expandSeverities returns the concrete severities this condition covers,
// sorted ascending and deduplicated.
func (c Condition) expandSeverities() []Severity {
	var out []Severity
	switch c.kind {
	case kindRange:
		for s := c.low; s <= c.high; s++ {
			out = append(out, s)
		}
	case kindSet:
		seen := make(map[Severity]bool, len(c.severities))
		for _, s := range c.severities {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	}
	return out
}

// MatchKey is one canonical (severity, application?, module?) bucket a
// normalised condition contributes to the index. Application and Module are
// empty when that dimension is unconstrained. This generalizes the three
// match-key shapes of the source protocol — (S), (S,A), (S,A,M) — with one
// additional shape, (S,M), to support a module constraint given without an
// application constraint (see DESIGN.md for why).
type MatchKey struct {
	Severity    Severity
	Application string
	Module      string
}

// Arity reports how many of (severity, application, module) this key
// constrains: 1 for (S), 2 for (S,A) or (S,M), 3 for (S,A,M).
func (k MatchKey) Arity() int {
	n := 1
	if k.Application != "" {
		n++
	}
	if k.Module != "" {
		n++
	}
	return n
}

func (k MatchKey) less(o MatchKey) bool {
	if k.Severity != o.Severity {
		return k.Severity < o.Severity
	}
	if k.Application != o.Application {
		return k.Application < o.Application
	}
	return k.Module < o.Module
}

// Normalize canonicalises a Condition into a sorted, deduplicated slice of
// MatchKeys. Normalization is idempotent and order-independent: normalizing
// an already-normalized set of keys (by round-tripping through SeveritySet
// per key, application and module preserved) reproduces the same set.
func Normalize(c Condition) ([]MatchKey, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	severities := c.expandSeverities()
	keys := make([]MatchKey, 0, len(severities))
	for _, s := range severities {
		keys = append(keys, MatchKey{Severity: s, Application: c.Application, Module: c.Module})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys, nil
}

// Diff partitions new and old (both already normalised, as returned by
// Normalize) into keys added, keys common to both, and keys removed. The
// three results are pairwise disjoint and their union equals new ∪ old.
// Both inputs must already be sorted ascending, as Normalize guarantees.
func Diff(newKeys, oldKeys []MatchKey) (added, common, removed []MatchKey) {
	i, j := 0, 0
	for i < len(newKeys) && j < len(oldKeys) {
		switch {
		case newKeys[i] == oldKeys[j]:
			common = append(common, newKeys[i])
			i++
			j++
		case newKeys[i].less(oldKeys[j]):
			added = append(added, newKeys[i])
			i++
		default:
			removed = append(removed, oldKeys[j])
			j++
		}
	}
	added = append(added, newKeys[i:]...)
	removed = append(removed, oldKeys[j:]...)
	return added, common, removed
}
