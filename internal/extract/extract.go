// Package extract computes the set of image references a rich-text
// document depends on, from both the editor JSON tree and the rendered
// markup.
package extract

import (
	"encoding/json"
	"regexp"

	mapset "github.com/deckarep/golang-set/v2"
)

const DefaultMaxDepth = 1000

// Node mirrors the editor document interchange shape: a typed node with
// optional attributes and an ordered list of child nodes.
type Node struct {
	Type    string `json:"type"`
	Attrs   *Attrs `json:"attrs,omitempty"`
	Content []Node `json:"content,omitempty"`
}

type Attrs struct {
	Src string `json:"src,omitempty"`
}

var imgSrcPattern = regexp.MustCompile(`(?i)<img[^>]*\ssrc\s*=\s*(?:"([^"]*)"|'([^']*)')`)

type Extractor struct {
	maxDepth int
}

func New(maxDepth int) *Extractor {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Extractor{maxDepth: maxDepth}
}

// FromDocument walks the document tree and collects attrs.src of every
// image node. Malformed or empty input yields an empty set, never an
// error. Nodes nested past the depth guard are skipped.
func (e *Extractor) FromDocument(document string) mapset.Set[string] {
	refs := mapset.NewSet[string]()
	if document == "" {
		return refs
	}

	var nodes []Node
	if err := json.Unmarshal([]byte(document), &nodes); err != nil {
		// tolerate a single root node as well as a node list
		var root Node
		if err := json.Unmarshal([]byte(document), &root); err != nil {
			return refs
		}
		nodes = []Node{root}
	}

	type frame struct {
		node  Node
		depth int
	}

	stack := make([]frame, 0, len(nodes))
	for _, n := range nodes {
		stack = append(stack, frame{node: n, depth: 0})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.node.Type == "image" && f.node.Attrs != nil && f.node.Attrs.Src != "" {
			refs.Add(f.node.Attrs.Src)
		}

		// an image node can carry children of its own, descend regardless
		if f.depth+1 > e.maxDepth {
			continue
		}
		for _, child := range f.node.Content {
			stack = append(stack, frame{node: child, depth: f.depth + 1})
		}
	}

	return refs
}

// FromMarkup scans rendered markup for <img src> references.
// Non-HTML input simply yields an empty set.
func (e *Extractor) FromMarkup(markup string) mapset.Set[string] {
	refs := mapset.NewSet[string]()
	if markup == "" {
		return refs
	}

	for _, match := range imgSrcPattern.FindAllStringSubmatch(markup, -1) {
		src := match[1]
		if src == "" {
			src = match[2]
		}
		if src != "" {
			refs.Add(src)
		}
	}

	return refs
}

// Extract returns the deduplicated union of both emissions.
func (e *Extractor) Extract(document, markup string) mapset.Set[string] {
	return e.FromDocument(document).Union(e.FromMarkup(markup))
}
