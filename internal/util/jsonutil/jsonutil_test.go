package jsonutil

import "testing"

type payload struct {
	Insights string   `json:"insights"`
	Tags     []string `json:"tags"`
}

func TestUnmarshalPlain(t *testing.T) {
	var p payload
	if err := Unmarshal([]byte(`{"insights": "ok", "tags": ["a"]}`), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Insights != "ok" || len(p.Tags) != 1 {
		t.Fatalf("payload = %+v", p)
	}
}

func TestUnmarshalQuotedEnvelope(t *testing.T) {
	// The whole object delivered as one JSON string.
	raw := `"{\"insights\": \"wrapped\", \"tags\": []}"`
	var p payload
	if err := Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Insights != "wrapped" {
		t.Fatalf("payload = %+v", p)
	}
}

func TestNormalizeDoubleEscaped(t *testing.T) {
	raw := []byte(`{"insights": "line one\\nline two"}`)
	norm, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	var p payload
	if err := Unmarshal(norm, &p); err != nil {
		t.Fatalf("Unmarshal normalized: %v", err)
	}
	if p.Insights != "line one\nline two" {
		t.Fatalf("insights = %q", p.Insights)
	}
}

func TestMarshalNoEscape(t *testing.T) {
	b, err := MarshalNoEscape(map[string]string{"k": "<b> & more"})
	if err != nil {
		t.Fatalf("MarshalNoEscape: %v", err)
	}
	if string(b) != `{"k":"<b> & more"}` {
		t.Fatalf("out = %s", b)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize([]byte("not json at all")); err == nil {
		t.Fatal("expected error")
	}
}
