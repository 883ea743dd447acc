package types

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	for _, in := range []string{"pending", "PASSED", " Failed ", "skipped", "removed"} {
		st, err := ParseStatus(in)
		if err != nil {
			t.Errorf("ParseStatus(%q) error = %v", in, err)
			continue
		}
		if string(st) != strings.ToUpper(strings.TrimSpace(in)) {
			t.Errorf("ParseStatus(%q) = %v", in, st)
		}
	}
	if _, err := ParseStatus("done"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("ParseStatus(done) error = %v, want ErrInvalidStatus", err)
	}
}

func TestStatus_Settable(t *testing.T) {
	tests := map[Status]bool{
		StatusPending: true,
		StatusPassed:  true,
		StatusFailed:  true,
		StatusSkipped: false,
		StatusRemoved: false,
		Status("X"):   false,
	}
	for st, want := range tests {
		if got := st.Settable(); got != want {
			t.Errorf("%v.Settable() = %v, want %v", st, got, want)
		}
	}
	if !StatusPassed.IsDefinitive() || !StatusFailed.IsDefinitive() || StatusPending.IsDefinitive() {
		t.Error("IsDefinitive() should hold for PASSED and FAILED only")
	}
}

func TestSpec(t *testing.T) {
	s := NewSpec("http", map[string]any{"url": "http://x", KindKey: "ignored"})
	if s.Kind() != "http" {
		t.Errorf("Kind() = %q, want http", s.Kind())
	}
	c := s.Clone()
	c["url"] = "changed"
	if s["url"] != "http://x" {
		t.Error("Clone() shares storage with the original")
	}

	nested := Spec{
		"kind":   "field",
		"values": []any{"a", map[string]any{"k": "v"}},
		"opts":   map[string]any{"tags": []string{"x"}},
	}
	deep := nested.Clone()
	deep["values"].([]any)[0] = "changed"
	deep["values"].([]any)[1].(map[string]any)["k"] = "changed"
	deep["opts"].(map[string]any)["tags"].([]string)[0] = "changed"
	if nested["values"].([]any)[0] != "a" ||
		nested["values"].([]any)[1].(map[string]any)["k"] != "v" ||
		nested["opts"].(map[string]any)["tags"].([]string)[0] != "x" {
		t.Errorf("Clone() shares nested storage: %v", nested)
	}
	if err := (Spec{"kind": "  "}).Validate(); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("Validate() error = %v, want ErrInvalidSpec", err)
	}
	if err := (Spec{"kind": 3}).Validate(); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("Validate() error = %v, want ErrInvalidSpec for a non-string kind", err)
	}
}

func TestDedupeTags(t *testing.T) {
	got := DedupeTags([]string{"a", "", "b", "a", "c", "b"})
	if strings.Join(got, ",") != "a,b,c" {
		t.Errorf("DedupeTags() = %v, want [a b c]", got)
	}
	if DedupeTags([]string{"", ""}) != nil {
		t.Error("DedupeTags() of empty tags should be nil")
	}
}

func TestSortedIDs(t *testing.T) {
	got := SortedIDs(map[NodeID]Status{"b": StatusPending, "a": StatusPassed, "c": StatusFailed})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("SortedIDs() = %v", got)
	}
}

func TestIncrementalIDs(t *testing.T) {
	g := NewIncrementalIDs("exp_")
	for i, want := range []NodeID{"exp_0", "exp_1", "exp_2"} {
		if got := g.Next(); got != want {
			t.Errorf("Next() #%d = %v, want %v", i, got, want)
		}
	}
	// Generators are independent.
	if got := NewIncrementalIDs("exp_").Next(); got != "exp_0" {
		t.Errorf("fresh generator Next() = %v, want exp_0", got)
	}
}

func TestNewIDGenerator(t *testing.T) {
	g, err := NewIDGenerator("uuid", "leaf-")
	if err != nil {
		t.Fatalf("NewIDGenerator(uuid) error = %v", err)
	}
	before := time.Now().Add(-time.Second)
	id := g.Next()
	if !strings.HasPrefix(string(id), "leaf-") {
		t.Errorf("Next() = %v, want prefix leaf-", id)
	}
	if ts := NodeIDTime(id, "leaf-"); ts.Before(before) {
		t.Errorf("NodeIDTime() = %v, want after %v", ts, before)
	}
	if !NodeIDTime("exp_0", "exp_").IsZero() {
		t.Error("NodeIDTime() of an incremental id should be zero")
	}

	g, err = NewIDGenerator("", "")
	if err != nil {
		t.Fatalf("NewIDGenerator(default) error = %v", err)
	}
	if got := g.Next(); got != "exp_0" {
		t.Errorf("default Next() = %v, want exp_0", got)
	}

	if _, err := NewIDGenerator("snowflake", ""); err == nil {
		t.Error("NewIDGenerator(snowflake) error = nil")
	}
}
