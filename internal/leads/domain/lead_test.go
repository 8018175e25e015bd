package domain

import "testing"

func strPtr(s string) *string { return &s }

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"new", "pursue", "review", "drop"} {
		if _, err := ParseStatus(raw); err != nil {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}
	if _, err := ParseStatus("qualified"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestStatusIsDecision(t *testing.T) {
	if StatusNew.IsDecision() {
		t.Fatal("new must not be a decision outcome")
	}
	for _, s := range DecisionStatuses() {
		if !s.IsDecision() {
			t.Fatalf("%s should be a decision outcome", s)
		}
	}
}

func TestHasContact(t *testing.T) {
	var lead Lead
	if lead.HasContact() {
		t.Fatal("lead without contact fields must report no contact")
	}

	lead.Email = strPtr("")
	lead.Phone = strPtr("  ")
	if !lead.HasContact() {
		// Whitespace-only phone counts as present; trimming happens at the boundary.
		t.Fatal("non-empty phone string should count as contact")
	}

	lead.Phone = strPtr("")
	if lead.HasContact() {
		t.Fatal("empty strings must count as absent")
	}

	lead.Email = strPtr("a@b.co")
	if !lead.HasContact() {
		t.Fatal("email alone should satisfy contact")
	}
}
