package model

// OutlineNode is one node of the synthesized content skeleton. The root
// (level 0) carries the keyword as its heading; sections start at level 1.
// Levels increase by exactly one from parent to child.
type OutlineNode struct {
	Heading  string        `json:"heading"`
	Level    int           `json:"level"`
	Terms    []string      `json:"terms,omitempty"`
	Entities []string      `json:"entities,omitempty"`
	IsGap    bool          `json:"is_gap,omitempty"`
	Children []OutlineNode `json:"children,omitempty"`
}

// Walk visits n and every descendant in document order.
func (n *OutlineNode) Walk(fn func(*OutlineNode)) {
	fn(n)
	for i := range n.Children {
		n.Children[i].Walk(fn)
	}
}

// SectionCount returns the number of non-root nodes in the tree.
func (n *OutlineNode) SectionCount() int {
	count := -1 // exclude the virtual root
	n.Walk(func(*OutlineNode) { count++ })
	return count
}
