package oracc

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRepairBrackets(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		text  string
		ideal string
		want  string
	}{
		{"no brackets expected", "lugal", "", "lugal"},
		{"already matching", "[lugal]", "[]", "[lugal]"},
		{"wrap whole", "lugal", "[]", "[lugal]"},
		{"unrecoverable open and shut", "abc]-def-[ghi", "[]", "[abc-def-ghi]"},
		{"missing close", "lugal", "]", "lugal]"},
		{"missing open", "3(diš)", "[", "[3(diš)"},
		{"close before first open", "a-[b", "][", "a-][b"},
		{"fallback strips", "a-b", "][", "a-b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RepairBrackets(tt.text, tt.ideal); got != tt.want {
				t.Errorf("RepairBrackets(%q, %q) = %q, want %q", tt.text, tt.ideal, got, tt.want)
			}
		})
	}
}

func TestIdealBrackets(t *testing.T) {
	t.Parallel()
	var gdl []GDLItem
	data := `[
		{"seq": [{"breakStart": "1"}, {"v": "x"}], "breakEnd": "1"},
		{"group": [{"breakEnd": 1}], "breakStart": true}
	]`
	if err := json.Unmarshal([]byte(data), &gdl); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := idealBrackets(gdl); got != "[]][" {
		t.Errorf("idealBrackets = %q, want %q", got, "[]][")
	}
}

func TestTruthy(t *testing.T) {
	t.Parallel()
	tests := map[string]bool{
		`"1"`:   true,
		`""`:    false,
		`0`:     false,
		`1`:     true,
		`true`:  true,
		`false`: false,
		`null`:  false,
		`[]`:    false,
		`["x"]`: true,
	}
	for in, want := range tests {
		var got truthy
		if err := json.Unmarshal([]byte(in), &got); err != nil {
			t.Errorf("unmarshal %s: %v", in, err)
			continue
		}
		if bool(got) != want {
			t.Errorf("truthy(%s) = %v, want %v", in, got, want)
		}
	}
}

func mustParse(t *testing.T, data string) []Node {
	t.Helper()
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	nodes, err := ParseNodes(raw)
	if err != nil {
		t.Fatalf("ParseNodes: %v", err)
	}
	return nodes
}

func TestTransliterate(t *testing.T) {
	t.Parallel()
	nodes := mustParse(t, `[
		{"node": "c", "type": "text", "id": "P1.U0", "cdl": [
			{"node": "d", "type": "object"},
			{"node": "d", "type": "surface"},
			{"node": "d", "type": "line-start"},
			{"node": "l", "frag": "lugal", "f": {"lang": "sux", "form": "lugal"}},
			{"node": "l", "f": {"lang": "sux-x-emesal", "form": "e₂"}},
			{"node": "d", "type": "line-start"},
			{"node": "d", "type": "nonx", "state": "missing"},
			{"node": "d", "type": "surface"},
			{"node": "d", "type": "line-start"},
			{"node": "d", "type": "nonx", "state": "ruling"},
			{"linkbase": []}
		]}
	]`)

	text, langs := Transliterate(nodes)
	if want := "#SURFACE#\nlugal e₂\n#MISSING#"; text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if want := "sux, sux-x-emesal"; langs != want {
		t.Errorf("langs = %q, want %q", langs, want)
	}
}

func TestTransliterate_SpecialTokens(t *testing.T) {
	t.Parallel()
	nodes := mustParse(t, `[
		{"node": "l", "frag": "a"},
		{"node": "d", "type": "column"},
		{"node": "l", "frag": "b"},
		{"node": "d", "type": "nonx", "state": "blank", "scope": "space"},
		{"node": "d", "type": "nonx", "state": "blank", "scope": "line"},
		{"node": "d", "type": "nonx", "state": "blank", "scope": "other"},
		{"node": "ll", "choices": []}
	]`)
	text, langs := Transliterate(nodes)
	if want := "#SURFACE#\na\n#COLUMN#\nb\n#BLANK_SPACE#\n#MISSING#"; text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if langs != "" {
		t.Errorf("langs = %q, want empty", langs)
	}
}

func TestTransliterate_NoContent(t *testing.T) {
	t.Parallel()
	nodes := mustParse(t, `[
		{"node": "d", "type": "surface"},
		{"node": "d", "type": "nonx", "state": "missing"}
	]`)
	if text, _ := Transliterate(nodes); text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

func TestTransliterate_NFC(t *testing.T) {
	t.Parallel()
	nodes := mustParse(t, `[{"node": "l", "frag": "s\u030cu"}]`)
	if text, _ := Transliterate(nodes); text != "#SURFACE#\nšu" {
		t.Errorf("text = %q, want composed šu", text)
	}
}

func TestParseNode_Errors(t *testing.T) {
	t.Parallel()
	tests := []string{
		`{"node": "x"}`,
		`{}`,
		`{"node": "d", "type": "paragraph"}`,
		`{"node": "c", "type": "poem"}`,
		`{"node": "c", "type": "text", "cdl": [{"node": "q"}]}`,
	}
	for _, in := range tests {
		if _, err := ParseNode(json.RawMessage(in)); !errors.Is(err, ErrUnknownNode) {
			t.Errorf("ParseNode(%s) error = %v, want ErrUnknownNode", in, err)
		}
	}
}

func TestParseNode_Linkbase(t *testing.T) {
	t.Parallel()
	n, err := ParseNode(json.RawMessage(`{"linkbase": [{"x": 1}]}`))
	if err != nil {
		t.Fatalf("ParseNode: %v", err)
	}
	if n.Kind != KindLinkbase {
		t.Errorf("Kind = %q, want linkbase", n.Kind)
	}
}
