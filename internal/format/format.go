// Package format renders mastery analyses and suggestions as learner-facing
// text in a chosen tone.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/abhisek/prepcoach/internal/mastery"
	"github.com/abhisek/prepcoach/internal/spacedrep"
	"github.com/abhisek/prepcoach/internal/suggestion"
)

// Tone selects the register of rendered text.
type Tone string

const (
	ToneEncouraging Tone = "encouraging"
	ToneNeutral     Tone = "neutral"
	ToneUrgent      Tone = "urgent"
)

// ParseTone maps s to a Tone, defaulting to neutral.
func ParseTone(s string) Tone {
	switch Tone(strings.ToLower(strings.TrimSpace(s))) {
	case ToneEncouraging:
		return ToneEncouraging
	case ToneUrgent:
		return ToneUrgent
	default:
		return ToneNeutral
	}
}

// Area is a named curriculum node with its mastery.
type Area struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Mastery float64 `json:"mastery"`
}

// Analysis is the summary a learner sees.
type Analysis struct {
	UserID        string                  `json:"user_id"`
	Overall       float64                 `json:"overall"`
	Practiced     bool                    `json:"practiced"`
	Mastered      int                     `json:"mastered"`
	Subtopics     int                     `json:"subtopics"`
	Strongest     *Area                   `json:"strongest,omitempty"`
	Weakest       *Area                   `json:"weakest,omitempty"`
	DueReviews    int                     `json:"due_reviews"`
	HasExam       bool                    `json:"has_exam"`
	DaysUntilExam int                     `json:"days_until_exam,omitempty"`
	Suggestions   []suggestion.Suggestion `json:"suggestions"`
}

// NewAnalysis summarises a mastery tree, its due reviews and the active
// suggestions. root may be nil for a learner without curriculum data.
func NewAnalysis(userID string, root *mastery.Node, due []spacedrep.Entry, daysUntilExam float64, hasExam bool, active []suggestion.Suggestion) Analysis {
	a := Analysis{
		UserID:      userID,
		DueReviews:  len(due),
		HasExam:     hasExam,
		Suggestions: active,
	}
	if hasExam {
		a.DaysUntilExam = int(math.Ceil(daysUntilExam))
	}
	if root == nil {
		return a
	}

	a.Overall = root.Mastery
	a.Practiced = !root.Unpracticed
	a.Mastered = root.MasteredCount
	for _, s := range root.Subtopics() {
		a.Subtopics++
		if s.Unpracticed {
			continue
		}
		area := &Area{ID: s.ID, Name: s.Name, Mastery: s.Mastery}
		if a.Strongest == nil || s.Mastery > a.Strongest.Mastery {
			a.Strongest = area
		}
		if a.Weakest == nil || s.Mastery < a.Weakest.Mastery {
			a.Weakest = area
		}
	}
	return a
}

// phrases are the tone-specific building blocks.
type phrases struct {
	opener     func(a Analysis) string
	exam       string // format with days
	due        string // format with count
	bullet     string
	categories map[suggestion.Category]string
}

var tones = map[Tone]phrases{
	ToneEncouraging: {
		opener: func(a Analysis) string {
			switch {
			case !a.Practiced:
				return "Welcome aboard! Your first practice session sets the baseline."
			case a.Overall >= 70:
				return fmt.Sprintf("Great work! You're at %.0f%% overall mastery.", a.Overall)
			default:
				return fmt.Sprintf("You're building momentum at %.0f%% overall mastery. Every session counts.", a.Overall)
			}
		},
		exam:   "Your exam is %d days away, and you have time to make them count.",
		due:    "%d quick reviews will keep things fresh.",
		bullet: "* ",
		categories: map[suggestion.Category]string{
			suggestion.CategoryMomentum: "Keep it up: ",
			suggestion.CategoryDecline:  "A little refresh helps: ",
			suggestion.CategoryWeakArea: "Next challenge: ",
		},
	},
	ToneNeutral: {
		opener: func(a Analysis) string {
			if !a.Practiced {
				return "No practice recorded yet."
			}
			return fmt.Sprintf("Overall mastery %.0f%% (%d of %d subtopics mastered).", a.Overall, a.Mastered, a.Subtopics)
		},
		exam:   "Exam in %d days.",
		due:    "%d reviews due.",
		bullet: "- ",
	},
	ToneUrgent: {
		opener: func(a Analysis) string {
			if !a.Practiced {
				return "Start practicing today."
			}
			return fmt.Sprintf("Overall mastery is %.0f%%. Focus is needed now.", a.Overall)
		},
		exam:   "Only %d days until your exam.",
		due:    "%d reviews are waiting. Clear them today.",
		bullet: "! ",
		categories: map[suggestion.Category]string{
			suggestion.CategoryReview:   "Do now: ",
			suggestion.CategoryExamPrep: "Priority: ",
			suggestion.CategoryDecline:  "Fix this: ",
			suggestion.CategoryWeakArea: "Priority: ",
		},
	},
}

// Format renders a in the given tone.
func Format(a Analysis, tone Tone) string {
	tone = known(tone)
	p := tones[tone]

	var b strings.Builder
	b.WriteString(p.opener(a))

	if a.Practiced && a.Strongest != nil && a.Weakest != nil && a.Strongest.ID != a.Weakest.ID {
		fmt.Fprintf(&b, "\nStrongest: %s (%.0f%%). Weakest: %s (%.0f%%).",
			a.Strongest.Name, a.Strongest.Mastery, a.Weakest.Name, a.Weakest.Mastery)
	}

	var facts []string
	if a.DueReviews > 0 {
		facts = append(facts, fmt.Sprintf(p.due, a.DueReviews))
	}
	if a.HasExam {
		facts = append(facts, fmt.Sprintf(p.exam, a.DaysUntilExam))
	}
	if len(facts) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(facts, " "))
	}

	if len(a.Suggestions) > 0 {
		b.WriteString("\n")
		for _, s := range a.Suggestions {
			b.WriteString("\n")
			b.WriteString(Suggestion(s, tone))
		}
	}
	return b.String()
}

// known returns tone, or neutral when no phrase table exists for it.
func known(tone Tone) Tone {
	if _, ok := tones[tone]; !ok {
		return ToneNeutral
	}
	return tone
}

// Suggestion renders one suggestion line in the given tone.
func Suggestion(s suggestion.Suggestion, tone Tone) string {
	tone = known(tone)
	p := tones[tone]

	var b strings.Builder
	b.WriteString(p.bullet)
	if lead, ok := p.categories[s.Category]; ok {
		b.WriteString(lead)
	} else if tone == ToneNeutral {
		fmt.Fprintf(&b, "[%s] ", s.Category)
	}
	b.WriteString(s.Message)
	if s.ActionName != "" {
		if s.ActionURL != "" {
			fmt.Fprintf(&b, " (%s: %s)", s.ActionName, s.ActionURL)
		} else {
			fmt.Fprintf(&b, " (%s)", s.ActionName)
		}
	}
	return b.String()
}
