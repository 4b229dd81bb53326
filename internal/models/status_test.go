package models

import "testing"

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"pending", StatusPending, true},
		{" In-Progress ", StatusInProgress, true},
		{"REFUSED_BY_MANAGER", StatusRefusedByManager, true},
		{"done", Status("done"), false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseStatus(%q) = %q, %v", tc.in, got, ok)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	for _, s := range Statuses {
		if s.Label() == "" {
			t.Fatalf("missing label for %s", s)
		}
		if s.IsTerminal() && s.Editable() {
			t.Fatalf("%s cannot be both terminal and editable", s)
		}
	}
	if StatusInProgress.Editable() || StatusInProgress.IsTerminal() {
		t.Fatalf("in_progress is neither editable nor terminal")
	}
	if !StatusUrgent.IsPendingFamily() || StatusDelegated.IsPendingFamily() {
		t.Fatalf("unexpected pending family membership")
	}
}

func TestParseArea(t *testing.T) {
	if a, ok := ParseArea(" Centro "); !ok || a != AreaCentro {
		t.Fatalf("expected centro, got %q %v", a, ok)
	}
	if _, ok := ParseArea("nordeste"); ok {
		t.Fatalf("expected nordeste to be rejected")
	}
}
