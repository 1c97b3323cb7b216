package format

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepcoach/internal/llm"
	"github.com/abhisek/prepcoach/internal/mastery"
	"github.com/abhisek/prepcoach/internal/spacedrep"
	"github.com/abhisek/prepcoach/internal/suggestion"
)

func sampleTree() *mastery.Node {
	last := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &mastery.Node{
		ID: mastery.OverallID, Level: mastery.LevelOverall, Mastery: 61.6, MasteredCount: 1,
		Children: []*mastery.Node{{
			ID: "math", Name: "Mathematics", Level: mastery.LevelSubject, Mastery: 61.6,
			Children: []*mastery.Node{
				{ID: "lin", Name: "Linear Equations", Level: mastery.LevelSubtopic, Mastery: 92, LastPracticed: &last},
				{ID: "quad", Name: "Quadratics", Level: mastery.LevelSubtopic, Mastery: 31, LastPracticed: &last},
				{ID: "poly", Name: "Polynomials", Level: mastery.LevelSubtopic, Unpracticed: true},
			},
		}},
	}
}

var sampleSuggestions = []suggestion.Suggestion{
	{Category: suggestion.CategoryReview, Message: "2 topics are due for review.", ActionName: "Start review", ActionURL: "/review"},
	{Category: suggestion.CategoryMomentum, Message: "Accuracy is up."},
}

func sampleAnalysis() Analysis {
	due := []spacedrep.Entry{{SubtopicID: "quad"}, {SubtopicID: "lin"}}
	return NewAnalysis("u1", sampleTree(), due, 11.2, true, sampleSuggestions)
}

func TestParseTone(t *testing.T) {
	assert.Equal(t, ToneEncouraging, ParseTone(" Encouraging "))
	assert.Equal(t, ToneUrgent, ParseTone("urgent"))
	assert.Equal(t, ToneNeutral, ParseTone("neutral"))
	assert.Equal(t, ToneNeutral, ParseTone("sarcastic"))
	assert.Equal(t, ToneNeutral, ParseTone(""))
}

func TestNewAnalysis(t *testing.T) {
	a := sampleAnalysis()
	assert.True(t, a.Practiced)
	assert.Equal(t, 3, a.Subtopics)
	assert.Equal(t, 1, a.Mastered)
	assert.Equal(t, 2, a.DueReviews)
	assert.Equal(t, 12, a.DaysUntilExam)
	require.NotNil(t, a.Strongest)
	require.NotNil(t, a.Weakest)
	assert.Equal(t, "lin", a.Strongest.ID)
	assert.Equal(t, "quad", a.Weakest.ID)
}

func TestNewAnalysis_NilTree(t *testing.T) {
	a := NewAnalysis("u1", nil, nil, 0, false, nil)
	assert.False(t, a.Practiced)
	assert.Contains(t, Format(a, ToneNeutral), "No practice recorded yet.")
}

func TestFormat_Neutral(t *testing.T) {
	out := Format(sampleAnalysis(), ToneNeutral)
	want := strings.Join([]string{
		"Overall mastery 62% (1 of 3 subtopics mastered).",
		"Strongest: Linear Equations (92%). Weakest: Quadratics (31%).",
		"2 reviews due. Exam in 12 days.",
		"",
		"- [REVIEW] 2 topics are due for review. (Start review: /review)",
		"- [MOMENTUM] Accuracy is up.",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestFormat_TonesDiffer(t *testing.T) {
	a := sampleAnalysis()
	enc, neu, urg := Format(a, ToneEncouraging), Format(a, ToneNeutral), Format(a, ToneUrgent)

	assert.NotEqual(t, enc, neu)
	assert.NotEqual(t, urg, neu)
	assert.Contains(t, enc, "Keep it up: Accuracy is up.")
	assert.Contains(t, urg, "! Do now: 2 topics are due for review.")
	assert.Contains(t, urg, "Only 12 days until your exam.")
}

func TestFormat_UnknownToneIsNeutral(t *testing.T) {
	a := sampleAnalysis()
	assert.Equal(t, Format(a, ToneNeutral), Format(a, Tone("shouty")))
}

func TestSuggestion_UnknownToneKeepsCategoryTag(t *testing.T) {
	for _, tone := range []Tone{ToneNeutral, "shouty", ""} {
		got := Suggestion(sampleSuggestions[1], tone)
		assert.Equal(t, "- ["+string(suggestion.CategoryMomentum)+"] Accuracy is up.", got, "tone %q", tone)
	}
}

func TestNarrator_UsesProvider(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"headline":"Almost there","body":"Review quadratics tonight."}`),
	})
	n := NewNarrator(mock, nil)

	got := n.Narrate(context.Background(), sampleAnalysis(), ToneEncouraging)
	assert.True(t, got.Generated)
	assert.Equal(t, "Almost there", got.Headline)
	require.Equal(t, 1, mock.CallCount())
	assert.Contains(t, mock.Calls[0].Messages[0].Content, "Tone: encouraging")
	assert.Contains(t, mock.Calls[0].Messages[0].Content, "Quadratics")
}

func TestNarrator_FallsBack(t *testing.T) {
	a := sampleAnalysis()
	tests := map[string]*Narrator{
		"no provider":    NewNarrator(nil, nil),
		"provider error": NewNarrator(llm.NewMockProvider(), nil),
		"schema failure": NewNarrator(llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"headline":""}`)}), nil),
	}
	for name, n := range tests {
		t.Run(name, func(t *testing.T) {
			got := n.Narrate(context.Background(), a, ToneUrgent)
			assert.False(t, got.Generated)
			assert.Equal(t, Format(a, ToneUrgent), got.Body)
			assert.Equal(t, "12 days to go", got.Headline)
		})
	}
}
