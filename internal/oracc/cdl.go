package oracc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrUnknownNode indicates a CDL node whose kind or type is not recognised.
var ErrUnknownNode = errors.New("unknown CDL node")

// NodeKind is the "node" tag of a CDL node.
type NodeKind string

// CDL node kinds.
const (
	KindChunk         NodeKind = "c"
	KindDiscontinuity NodeKind = "d"
	KindLemma         NodeKind = "l"
	KindChoice        NodeKind = "ll"
	KindLinkbase      NodeKind = "linkbase"
)

var chunkTypes = map[string]bool{
	"discourse": true, "phrase": true, "sentence": true, "text": true,
}

var discontinuityTypes = map[string]bool{
	"cell-start": true, "cell-end": true, "column": true, "field-start": true,
	"field-end": true, "line-start": true, "nonw": true, "nonx": true,
	"object": true, "surface": true,
}

// Node is one parsed CDL node. Which fields are set depends on Kind.
type Node struct {
	Kind NodeKind

	// Chunk and discontinuity type.
	Type string
	// Chunk children.
	Children []Node

	// Discontinuity.
	State string
	Scope string

	// Lemma.
	Frag string
	Form string
	Lang string
	GDL  []GDLItem
}

// GDLItem is one grapheme entry of a lemma's form.
type GDLItem struct {
	BreakStart truthy    `json:"breakStart"`
	BreakEnd   truthy    `json:"breakEnd"`
	Seq        []GDLItem `json:"seq"`
	Group      []GDLItem `json:"group"`
}

// truthy decodes any JSON value and records whether it is non-empty:
// a non-empty string, true, a non-zero number, or a non-empty list or object.
type truthy bool

func (t *truthy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*t = false
	case bytes.Equal(data, []byte(`""`)), bytes.Equal(data, []byte("[]")), bytes.Equal(data, []byte("{}")):
		*t = false
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*t = f != 0
	default:
		*t = true
	}
	return nil
}

type rawNode struct {
	Node     NodeKind          `json:"node"`
	Linkbase json.RawMessage   `json:"linkbase"`
	CDL      []json.RawMessage `json:"cdl"`
	Type     string            `json:"type"`
	State    string            `json:"state"`
	Scope    string            `json:"scope"`
	Frag     string            `json:"frag"`
	F        struct {
		Form string    `json:"form"`
		Lang string    `json:"lang"`
		GDL  []GDLItem `json:"gdl"`
	} `json:"f"`
}

// ParseNode decodes a single CDL node and its descendants.
func ParseNode(data json.RawMessage) (Node, error) {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return Node{}, err
	}
	kind := raw.Node
	if kind == "" && raw.Linkbase != nil {
		kind = KindLinkbase
	}

	n := Node{Kind: kind}
	switch kind {
	case KindChunk:
		if !chunkTypes[raw.Type] {
			return Node{}, fmt.Errorf("%w: chunk type %q", ErrUnknownNode, raw.Type)
		}
		n.Type = raw.Type
		children, err := ParseNodes(raw.CDL)
		if err != nil {
			return Node{}, err
		}
		n.Children = children
	case KindDiscontinuity:
		if !discontinuityTypes[raw.Type] {
			return Node{}, fmt.Errorf("%w: discontinuity type %q", ErrUnknownNode, raw.Type)
		}
		n.Type = raw.Type
		n.State = raw.State
		n.Scope = raw.Scope
	case KindLemma:
		n.Frag = raw.Frag
		n.Form = raw.F.Form
		n.Lang = raw.F.Lang
		n.GDL = raw.F.GDL
	case KindChoice, KindLinkbase:
	default:
		return Node{}, fmt.Errorf("%w: %q", ErrUnknownNode, raw.Node)
	}
	return n, nil
}

// ParseNodes decodes a list of CDL nodes.
func ParseNodes(raw []json.RawMessage) ([]Node, error) {
	nodes := make([]Node, 0, len(raw))
	for _, r := range raw {
		n, err := ParseNode(r)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ReadText loads the CDL body of one text file.
func ReadText(path string) ([]Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		CDL *[]json.RawMessage `json:"cdl"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if doc.CDL == nil {
		return nil, fmt.Errorf("%s: no cdl", filepath.Base(path))
	}
	return ParseNodes(*doc.CDL)
}

// LoadText loads the CDL body of a catalogue entry.
func (c *Catalogue) LoadText(e CatalogueEntry) ([]Node, error) {
	id := e.FileID()
	if id == "" {
		return nil, fmt.Errorf("%w: member %s", ErrNoFileID, e.Key)
	}
	return ReadText(filepath.Join(c.TextDir, id+".json"))
}
