// Package apisurface models the API document emitted by the declaration
// rollup tool per entry point, and merges the per-entry documents into one
// multi-entry document with rewritten cross-references.
package apisurface

import "encoding/json"

// ExcerptToken is one token of a signature excerpt. Reference tokens carry a
// canonical reference that participates in cross-linking.
type ExcerptToken struct {
	Kind               string `json:"kind"`
	Text               string `json:"text"`
	CanonicalReference string `json:"canonicalReference,omitempty"`
}

// Node is one member of the API surface tree. The root node describes the
// package; its members are entry points; everything below is the exported
// surface. Unrecognized fields round-trip through Extra so merged documents
// stay loadable by downstream documentation tooling.
type Node struct {
	Kind               string
	Name               string
	CanonicalReference string
	Members            []*Node
	ExcerptTokens      []ExcerptToken
	Extra              map[string]json.RawMessage
}

type nodeWire struct {
	Kind               string         `json:"kind"`
	Name               string         `json:"name,omitempty"`
	CanonicalReference string         `json:"canonicalReference"`
	Members            []*Node        `json:"members,omitempty"`
	ExcerptTokens      []ExcerptToken `json:"excerptTokens,omitempty"`
}

var knownNodeFields = map[string]bool{
	"kind": true, "name": true, "canonicalReference": true,
	"members": true, "excerptTokens": true,
}

// UnmarshalJSON decodes the typed fields and preserves everything else.
func (n *Node) UnmarshalJSON(data []byte) error {
	var wire nodeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if knownNodeFields[k] {
			delete(raw, k)
		}
	}
	n.Kind = wire.Kind
	n.Name = wire.Name
	n.CanonicalReference = wire.CanonicalReference
	n.Members = wire.Members
	n.ExcerptTokens = wire.ExcerptTokens
	if len(raw) > 0 {
		n.Extra = raw
	}
	return nil
}

// MarshalJSON re-emits typed fields merged with the preserved extras.
func (n *Node) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	for k, v := range n.Extra {
		out[k] = v
	}
	out["kind"] = n.Kind
	out["canonicalReference"] = n.CanonicalReference
	if n.Name != "" {
		out["name"] = n.Name
	}
	if len(n.Members) > 0 {
		out["members"] = n.Members
	}
	if len(n.ExcerptTokens) > 0 {
		out["excerptTokens"] = n.ExcerptTokens
	}
	return json.Marshal(out)
}

// Document is one API surface document: a tree rooted at a package node
// whose members are entry-point nodes.
type Document struct {
	Root *Node
}

// ParseDocument decodes an API document from JSON.
func ParseDocument(data []byte) (*Document, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &Document{Root: &root}, nil
}

// Marshal encodes the document back to JSON.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d.Root, "", "  ")
}

// entryPointNode returns the document's single entry-point member, or nil.
func (d *Document) entryPointNode() *Node {
	if d.Root == nil {
		return nil
	}
	for _, m := range d.Root.Members {
		if m.Kind == "EntryPoint" {
			return m
		}
	}
	return nil
}
