package adviserdesk

import (
	"testing"
	"time"
)

func TestParseOwnerRef(t *testing.T) {
	ref, err := ParseOwnerRef("primary:po1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Kind != OwnerKindPrimary || ref.ID != "po1" {
		t.Fatalf("unexpected ref: %+v", ref)
	}

	ref, err = ParseOwnerRef("associated:sr1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Kind != OwnerKindAssociated || ref.ID != "sr1" {
		t.Fatalf("unexpected ref: %+v", ref)
	}

	for _, bad := range []string{"", "primary", "primary:", "spouse:sr1"} {
		if _, err := ParseOwnerRef(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestComposeOwnerRefRoundTrip(t *testing.T) {
	ref := OwnerRef{Kind: OwnerKindAssociated, ID: "sr:with:colons"}
	parsed, err := ParseOwnerRef(ComposeOwnerRef(ref))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != ref {
		t.Fatalf("expected %+v got %+v", ref, parsed)
	}
}

func TestLocalID(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := LocalID([]byte("Smoking"), at)
	b := LocalID([]byte("Smoking"), at)
	if a != b {
		t.Fatalf("expected deterministic id, got %s and %s", a, b)
	}

	c := LocalID([]byte("Smoking"), at.Add(time.Nanosecond))
	if a == c {
		t.Fatalf("expected distinct ids across timestamps")
	}

	if !IsLocalID(a) {
		t.Fatalf("expected %s to be recognized as local", a)
	}
	if IsLocalID("b7f1c9d2-0000-0000-0000-000000000000") {
		t.Fatalf("uuid must not be recognized as local")
	}
}
