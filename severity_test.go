package chanlog

import (
	"errors"
	"testing"
)

func TestSeverityString(t *testing.T) {
	cases := []struct {
		s    Severity
		want string
	}{
		{Debug, "debug"},
		{Emergency, "emergency"},
		{Severity(99), "severity(99)"},
	}
	for _, c := range cases {
		if got := c.s.String(); got != c.want {
			t.Errorf("Severity(%d).String() = %q, want %q", int(c.s), got, c.want)
		}
	}
}

func TestParseSeverityRoundTrip(t *testing.T) {
	for s := MinSeverity; s <= MaxSeverity; s++ {
		got, err := ParseSeverity(s.String())
		if err != nil {
			t.Fatalf("ParseSeverity(%q): %v", s.String(), err)
		}
		if got != s {
			t.Errorf("ParseSeverity(%q) = %v, want %v", s.String(), got, s)
		}
	}
}

func TestParseSeverityUnknown(t *testing.T) {
	_, err := ParseSeverity("fatal")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSeverityOrdering(t *testing.T) {
	if !(Debug < Info && Info < Notice && Notice < Warning && Warning < Error &&
		Error < Critical && Critical < Alert && Alert < Emergency) {
		t.Fatal("severity enum is not in the expected total order")
	}
}
