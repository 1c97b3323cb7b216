// Package mastery rolls per-subtopic metrics up the curriculum tree into
// mastery, strength and mastered counts per node.
package mastery

import (
	"time"

	"github.com/abhisek/prepcoach/internal/attempt"
	"github.com/abhisek/prepcoach/internal/curriculum"
	"github.com/abhisek/prepcoach/internal/metrics"
)

// SubtopicInput is the per-subtopic data the aggregator consumes.
type SubtopicInput struct {
	Bundle        metrics.Bundle
	LastPracticed *time.Time
}

// InputsFromAttempts computes one SubtopicInput per subtopic in attempts.
func InputsFromAttempts(attempts []attempt.Attempt, cfg metrics.Config) map[string]SubtopicInput {
	groups := metrics.BySubtopic(attempts)
	out := make(map[string]SubtopicInput, len(groups))
	for id, group := range groups {
		out[id] = SubtopicInput{
			Bundle:        metrics.Calculate(group, cfg),
			LastPracticed: attempt.LastSolved(group),
		}
	}
	return out
}

// Aggregate builds the mastery tree for one learner. Subtopics without input
// are unpracticed and excluded from their parent's weighted average. Inputs
// for subtopics the curriculum does not know are ignored.
func Aggregate(tree curriculum.Tree, inputs map[string]SubtopicInput, cfg Config) *Node {
	cfg = cfg.withDefaults()

	root := &Node{ID: OverallID, Name: "Overall", Level: LevelOverall, Weightage: 1}
	for _, s := range tree.Subjects {
		subject := &Node{
			ID:         s.ID,
			Name:       s.Name,
			Level:      LevelSubject,
			Weightage:  curriculum.EffectiveWeight(s.Weightage),
			OrderIndex: s.OrderIndex,
		}
		for _, tp := range s.Topics {
			topic := &Node{
				ID:         tp.ID,
				Name:       tp.Name,
				Level:      LevelTopic,
				Weightage:  curriculum.EffectiveWeight(tp.Weightage),
				OrderIndex: tp.OrderIndex,
			}
			for _, st := range tp.Subtopics {
				topic.Children = append(topic.Children, leaf(st, inputs[st.ID], cfg))
			}
			rollup(topic, cfg)
			subject.Children = append(subject.Children, topic)
		}
		rollup(subject, cfg)
		root.Children = append(root.Children, subject)
	}
	rollup(root, cfg)
	return root
}

func leaf(st curriculum.Subtopic, in SubtopicInput, cfg Config) *Node {
	n := &Node{
		ID:         st.ID,
		Name:       st.Name,
		Level:      LevelSubtopic,
		Weightage:  curriculum.EffectiveWeight(st.Weightage),
		OrderIndex: st.OrderIndex,
	}
	if !in.Bundle.Practiced() {
		n.Unpracticed = true
		return n
	}

	n.TotalAttempts = in.Bundle.Core.TotalAttempts
	n.LastPracticed = in.LastPracticed
	n.Mastery = Score(in.Bundle, cfg.Weights)
	n.Improvement = in.Bundle.Trend.Improvement
	n.Consistency = in.Bundle.Trend.Consistency
	n.StrengthIndex = StrengthIndex(n.Mastery, n.Improvement, n.Consistency, cfg)
	if n.Mastery >= cfg.MasteredThreshold {
		n.MasteredCount = 1
	}
	return n
}

// rollup derives a parent's values from its already-built children.
func rollup(n *Node, cfg Config) {
	sortChildren(n.Children)

	var sumMastery, sumWeight, sumImprovement, sumConsistency float64
	for _, c := range n.Children {
		n.TotalAttempts += c.TotalAttempts
		n.MasteredCount += c.MasteredCount
		if c.LastPracticed != nil && (n.LastPracticed == nil || c.LastPracticed.After(*n.LastPracticed)) {
			t := *c.LastPracticed
			n.LastPracticed = &t
		}
		if c.TotalAttempts == 0 {
			continue
		}
		w := curriculum.EffectiveWeight(c.Weightage)
		sumMastery += c.Mastery * w
		sumImprovement += c.Improvement * w
		sumConsistency += c.Consistency * w
		sumWeight += w
	}

	if sumWeight == 0 {
		n.Unpracticed = true
		n.Mastery = 0
		n.StrengthIndex = 0
		return
	}
	n.Mastery = sumMastery / sumWeight
	n.Improvement = sumImprovement / sumWeight
	n.Consistency = sumConsistency / sumWeight
	n.StrengthIndex = StrengthIndex(n.Mastery, n.Improvement, n.Consistency, cfg)
}
