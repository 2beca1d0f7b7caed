package apisurface

import (
	"fmt"
	"strings"

	berrors "github.com/savvy-web/bun-builder-sub000/internal/errors"
)

// EntryDoc pairs one entry point's API document with its export key.
// Order is discovery order: the slice passed to Merge decides placement of
// non-root entries.
type EntryDoc struct {
	Name      string
	ExportKey string
	Doc       *Document
}

// Merge combines per-entry API documents into one multi-entry document.
//
// The entry whose export key is the package root keeps its unqualified
// canonical namespace and is placed first. Every other entry's namespace,
// and all nested member references beneath it, are rewritten with the
// entry's sub-path prefix, exactly once.
//
// A single input is returned unmodified: the common single-entry package
// needs no clone and no rewrite. Zero inputs is an error.
func Merge(docs []EntryDoc, packageName string) (*Document, error) {
	switch len(docs) {
	case 0:
		return nil, berrors.New(berrors.CategoryDeclarations, berrors.SeverityFatal, "merge requires at least one API document")
	case 1:
		return docs[0].Doc, nil
	}

	// The root-export document is the structural template and leads the
	// member list; the remaining entries keep discovery order. Without a
	// root export the first document serves as template.
	rootIdx := -1
	for i, d := range docs {
		if d.ExportKey == "." {
			rootIdx = i
			break
		}
	}
	ordered := make([]EntryDoc, 0, len(docs))
	template := docs[0]
	if rootIdx >= 0 {
		template = docs[rootIdx]
		ordered = append(ordered, docs[rootIdx])
		for i, d := range docs {
			if i != rootIdx {
				ordered = append(ordered, d)
			}
		}
	} else {
		ordered = append(ordered, docs...)
	}

	merged := &Node{
		Kind:               template.Doc.Root.Kind,
		Name:               template.Doc.Root.Name,
		CanonicalReference: template.Doc.Root.CanonicalReference,
		Extra:              template.Doc.Root.Extra,
	}

	unqualified := packageName + "!"
	for i, d := range ordered {
		ep := d.Doc.entryPointNode()
		if ep == nil {
			return nil, berrors.Newf(berrors.CategoryDeclarations, berrors.SeverityFatal,
				"API document for entry %q has no entry-point node", d.Name)
		}
		if i == 0 && d.ExportKey == "." {
			merged.Members = append(merged.Members, ep)
			continue
		}
		subpath := strings.TrimPrefix(d.ExportKey, "./")
		qualified := fmt.Sprintf("%s/%s!", packageName, subpath)
		merged.Members = append(merged.Members, rewriteNode(ep, unqualified, qualified))
	}

	return &Document{Root: merged}, nil
}

// rewriteNode returns a copy of the node tree with every canonical reference
// that begins with oldPrefix rewritten to newPrefix. The input tree is never
// mutated, so documents that skip rewriting share structure safely.
func rewriteNode(n *Node, oldPrefix, newPrefix string) *Node {
	out := &Node{
		Kind:               n.Kind,
		Name:               n.Name,
		CanonicalReference: rewriteRef(n.CanonicalReference, oldPrefix, newPrefix),
		Extra:              n.Extra,
	}
	if len(n.ExcerptTokens) > 0 {
		out.ExcerptTokens = make([]ExcerptToken, len(n.ExcerptTokens))
		for i, tok := range n.ExcerptTokens {
			tok.CanonicalReference = rewriteRef(tok.CanonicalReference, oldPrefix, newPrefix)
			out.ExcerptTokens[i] = tok
		}
	}
	if len(n.Members) > 0 {
		out.Members = make([]*Node, len(n.Members))
		for i, m := range n.Members {
			out.Members[i] = rewriteNode(m, oldPrefix, newPrefix)
		}
	}
	return out
}

func rewriteRef(ref, oldPrefix, newPrefix string) string {
	if strings.HasPrefix(ref, oldPrefix) {
		return newPrefix + ref[len(oldPrefix):]
	}
	return ref
}
