package recovery

import (
	"encoding/json"
	"reflect"
	"testing"
)

func extract(t *testing.T, text string) (string, bool) {
	t.Helper()
	raw, ok := ExtractJSONObject(text)
	return string(raw), ok
}

func TestExtract_SurroundingText(t *testing.T) {
	t.Parallel()

	got, ok := extract(t, `here's the result: {"a": 1} thanks`)
	if !ok {
		t.Fatal("want a candidate")
	}
	if got != `{"a": 1}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtract_BraceInsideString(t *testing.T) {
	t.Parallel()

	in := `{"a": "text with a { brace inside"}`
	got, ok := extract(t, in)
	if !ok {
		t.Fatal("want a candidate")
	}
	if got != in {
		t.Fatalf("got %q, want the whole object", got)
	}
}

func TestExtract_EscapedQuoteInString(t *testing.T) {
	t.Parallel()

	in := `{"a": "he said \"hi {\" and left"}`
	got, ok := extract(t, in)
	if !ok {
		t.Fatal("want a candidate")
	}
	if got != in {
		t.Fatalf("got %q", got)
	}
}

func TestExtract_Nested(t *testing.T) {
	t.Parallel()

	in := `prefix {"outer": {"inner": [1, 2]}} suffix`
	got, ok := extract(t, in)
	if !ok {
		t.Fatal("want a candidate")
	}

	var v map[string]any
	if err := json.Unmarshal([]byte(got), &v); err != nil {
		t.Fatalf("candidate does not parse: %v", err)
	}
	want := map[string]any{"outer": map[string]any{"inner": []any{1.0, 2.0}}}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("parsed = %v", v)
	}
}

func TestExtract_FencedBlock(t *testing.T) {
	t.Parallel()

	in := "```json\n{\"success\": true}\n```"
	got, ok := extract(t, in)
	if !ok {
		t.Fatal("want a candidate")
	}
	if got != `{"success": true}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtract_NoObject(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "no json here", "[1, 2, 3]", "{broken", "}{"} {
		if _, ok := ExtractJSONObject(in); ok {
			t.Errorf("ExtractJSONObject(%q) found a candidate, want none", in)
		}
	}
}

// A malformed balanced span is discarded and a later valid one returned.
func TestExtract_SkipsInvalidCandidate(t *testing.T) {
	t.Parallel()

	in := `first {not: valid json} then {"ok": true} end`
	got, ok := extract(t, in)
	if !ok {
		t.Fatal("want the later candidate")
	}
	if got != `{"ok": true}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtract_WholeStringObject(t *testing.T) {
	t.Parallel()

	in := `{"a": 1, "b": {"c": 2}}`
	got, ok := extract(t, in)
	if !ok || got != in {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}
