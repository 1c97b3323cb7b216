// Package curriculum models the subject → topic → subtopic tree the
// mastery rollup walks. The tree itself is owned by the content store.
package curriculum

import "sort"

// Subtopic is a leaf of the curriculum tree.
type Subtopic struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Weightage  float64 `json:"weightage"`
	OrderIndex int     `json:"order_index"`
}

// Topic groups subtopics within a subject.
type Topic struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Weightage  float64    `json:"weightage"`
	OrderIndex int        `json:"order_index"`
	Subtopics  []Subtopic `json:"subtopics"`
}

// Subject is a top-level curriculum node.
type Subject struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Weightage  float64 `json:"weightage"`
	OrderIndex int     `json:"order_index"`
	Topics     []Topic `json:"topics"`
}

// Tree is the full curriculum.
type Tree struct {
	Subjects []Subject `json:"subjects"`
}

// EffectiveWeight returns w, or 1 when w is not positive.
func EffectiveWeight(w float64) float64 {
	if w <= 0 {
		return 1
	}
	return w
}

// SubtopicIDs returns every subtopic id in the tree.
func (t Tree) SubtopicIDs() []string {
	var ids []string
	for _, s := range t.Subjects {
		for _, tp := range s.Topics {
			for _, st := range tp.Subtopics {
				ids = append(ids, st.ID)
			}
		}
	}
	return ids
}

// SubjectByID looks up a subject.
func (t Tree) SubjectByID(id string) (Subject, bool) {
	for _, s := range t.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

// Sort orders every level by OrderIndex, ties broken by id.
func (t *Tree) Sort() {
	sort.SliceStable(t.Subjects, func(i, j int) bool {
		return less(t.Subjects[i].OrderIndex, t.Subjects[j].OrderIndex, t.Subjects[i].ID, t.Subjects[j].ID)
	})
	for si := range t.Subjects {
		topics := t.Subjects[si].Topics
		sort.SliceStable(topics, func(i, j int) bool {
			return less(topics[i].OrderIndex, topics[j].OrderIndex, topics[i].ID, topics[j].ID)
		})
		for ti := range topics {
			subs := topics[ti].Subtopics
			sort.SliceStable(subs, func(i, j int) bool {
				return less(subs[i].OrderIndex, subs[j].OrderIndex, subs[i].ID, subs[j].ID)
			})
		}
	}
}

func less(oi, oj int, idi, idj string) bool {
	if oi != oj {
		return oi < oj
	}
	return idi < idj
}
