package mastery

import (
	"sort"
	"time"
)

// Level identifies a node's depth in the mastery tree.
type Level string

const (
	LevelOverall  Level = "overall"
	LevelSubject  Level = "subject"
	LevelTopic    Level = "topic"
	LevelSubtopic Level = "subtopic"
)

// OverallID is the id of the root node.
const OverallID = "overall"

// Node is one curriculum node with its rolled-up mastery.
type Node struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Level         Level      `json:"level"`
	Mastery       float64    `json:"mastery"`
	Weightage     float64    `json:"weightage"`
	StrengthIndex float64    `json:"strength_index"`
	TotalAttempts int        `json:"total_attempts"`
	MasteredCount int        `json:"mastered_count"`
	LastPracticed *time.Time `json:"last_practiced,omitempty"`
	OrderIndex    int        `json:"order_index"`
	Unpracticed   bool       `json:"unpracticed"`
	Improvement   float64    `json:"improvement"`
	Consistency   float64    `json:"consistency"`
	Children      []*Node    `json:"children,omitempty"`
}

// Walk visits n and every descendant depth-first, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the descendant (or n itself) with the given id.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(x *Node) {
		if found == nil && x.ID == id {
			found = x
		}
	})
	return found
}

// Subtopics returns every subtopic leaf in tree order.
func (n *Node) Subtopics() []*Node {
	return n.AtLevel(LevelSubtopic)
}

// AtLevel returns every node at the given level in tree order.
func (n *Node) AtLevel(level Level) []*Node {
	var out []*Node
	n.Walk(func(x *Node) {
		if x.Level == level {
			out = append(out, x)
		}
	})
	return out
}

// WeakSubtopics returns practiced subtopics with mastery below threshold,
// weakest strength first.
func (n *Node) WeakSubtopics(threshold float64) []*Node {
	var weak []*Node
	for _, s := range n.Subtopics() {
		if !s.Unpracticed && s.Mastery < threshold {
			weak = append(weak, s)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool {
		if weak[i].StrengthIndex != weak[j].StrengthIndex {
			return weak[i].StrengthIndex < weak[j].StrengthIndex
		}
		return weak[i].ID < weak[j].ID
	})
	return weak
}

// sortChildren orders children by OrderIndex ascending, ties by id.
func sortChildren(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].OrderIndex != nodes[j].OrderIndex {
			return nodes[i].OrderIndex < nodes[j].OrderIndex
		}
		return nodes[i].ID < nodes[j].ID
	})
}

// Flatten returns mastery by node id for every node in the tree.
func (n *Node) Flatten() map[string]float64 {
	out := make(map[string]float64)
	n.Walk(func(x *Node) {
		out[x.ID] = x.Mastery
	})
	return out
}
