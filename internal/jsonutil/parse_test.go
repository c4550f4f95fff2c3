package jsonutil

import "testing"

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestParseBareJSON(t *testing.T) {
	p, err := Parse[payload](`{"name": "pool", "count": 2}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "pool" || p.Count != 2 {
		t.Errorf("unexpected result: %+v", p)
	}
}

func TestParseFencedJSON(t *testing.T) {
	raw := "```json\n{\"name\": \"deck\", \"count\": 1}\n```"
	p, err := Parse[payload](raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "deck" {
		t.Errorf("unexpected result: %+v", p)
	}
}

func TestParseJSONWithProse(t *testing.T) {
	raw := "Here is the result you asked for:\n{\"name\": \"patio\", \"count\": 3}\nLet me know if you need changes."
	p, err := Parse[payload](raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "patio" || p.Count != 3 {
		t.Errorf("unexpected result: %+v", p)
	}
}

func TestParseNoJSON(t *testing.T) {
	if _, err := Parse[payload]("there is no JSON here"); err == nil {
		t.Error("expected error for text without JSON")
	}
}

func TestParseInvalidJSON(t *testing.T) {
	if _, err := Parse[payload](`{"name": }`); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestStripFencesNoFence(t *testing.T) {
	if got := StripFences("plain text"); got != "plain text" {
		t.Errorf("unexpected: %q", got)
	}
}

func TestExtractJSONArray(t *testing.T) {
	got, err := ExtractJSON(`prefix ["a","b"] suffix`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `["a","b"]` {
		t.Errorf("unexpected: %q", got)
	}
}
