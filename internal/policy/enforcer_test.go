package policy

import (
	"testing"

	"github.com/propscribe/listing-copy-kit/internal/facts"
)

func TestCheckMustInclude(t *testing.T) {
	pol := facts.Policy{MustInclude: []string{"open house"}}

	r := Check("Join us for the OPEN House this Sunday.", pol)
	if len(r.Missing) != 0 {
		t.Errorf("expected no missing terms, got %v", r.Missing)
	}
	if !r.Clean() {
		t.Error("expected clean report")
	}

	r = Check("Come tour the property any time.", pol)
	if len(r.Missing) != 1 || r.Missing[0] != "open house" {
		t.Errorf("expected missing [open house], got %v", r.Missing)
	}
}

func TestCheckAvoidWords(t *testing.T) {
	pol := facts.Policy{AvoidWords: []string{"school"}}

	r := Check("Minutes from top-rated Schools.", pol)
	if len(r.Banned) != 1 || r.Banned[0] != "school" {
		t.Errorf("expected banned [school], got %v", r.Banned)
	}

	r = Check("Minutes from parks and shopping.", pol)
	if len(r.Banned) != 0 {
		t.Errorf("expected no banned terms, got %v", r.Banned)
	}
}

func TestCheckEmptyPolicy(t *testing.T) {
	if !Check("any text at all", facts.Policy{}).Clean() {
		t.Error("empty policy should always be clean")
	}
}

func TestDenylistHits(t *testing.T) {
	hits := DenylistHits("This Safe Neighborhood is perfect for families who love parks.")
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %v", hits)
	}

	if hits := DenylistHits("Sunny corner lot with mature trees."); len(hits) != 0 {
		t.Errorf("expected no hits, got %v", hits)
	}
}
