package format

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/abhisek/prepcoach/internal/llm"
)

// Narration is a headline plus body for a learner-facing message.
type Narration struct {
	Headline  string `json:"headline"`
	Body      string `json:"body"`
	Generated bool   `json:"generated"`
}

var narrationSchema = &llm.Schema{
	Name:        "coach-narration",
	Description: "A short coaching message for an exam-prep learner",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"headline": map[string]any{"type": "string", "minLength": 1, "maxLength": 120},
			"body":     map[string]any{"type": "string", "minLength": 1},
		},
		"required":             []any{"headline", "body"},
		"additionalProperties": false,
	},
}

const narratorSystem = `You are a study coach for learners preparing for a standardized exam.
Rewrite the facts you are given as a short message in the requested tone.
Do not invent numbers, topics, or dates. Keep the body under 120 words.`

// Narrator rewrites analyses through an LLM, falling back to Format.
type Narrator struct {
	provider llm.Provider
	logger   *slog.Logger
}

// NewNarrator creates a Narrator. A nil provider always uses the fallback.
func NewNarrator(p llm.Provider, logger *slog.Logger) *Narrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrator{provider: p, logger: logger}
}

// Narrate returns an LLM-written narration of a, or the deterministic
// rendering when no provider is set or the call fails.
func (n *Narrator) Narrate(ctx context.Context, a Analysis, tone Tone) Narration {
	fallback := Narration{Headline: Headline(a, tone), Body: Format(a, tone)}
	if n.provider == nil {
		return fallback
	}

	prompt := fmt.Sprintf("Tone: %s\n\nFacts:\n%s", tone, Format(a, ToneNeutral))
	resp, err := n.provider.Generate(llm.WithPurpose(ctx, "narrate"), llm.Prompt(narratorSystem, prompt, narrationSchema, 512))
	if err != nil {
		n.logger.Warn("narration failed, using template", "user", a.UserID, "error", err)
		return fallback
	}

	var out Narration
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		n.logger.Warn("narration undecodable, using template", "user", a.UserID, "error", err)
		return fallback
	}
	out.Generated = true
	return out
}

// Headline is a one-line summary of a in the given tone.
func Headline(a Analysis, tone Tone) string {
	switch {
	case !a.Practiced:
		return "Let's get started"
	case tone == ToneUrgent && a.HasExam:
		return fmt.Sprintf("%d days to go", a.DaysUntilExam)
	case tone == ToneEncouraging:
		return fmt.Sprintf("%.0f%% and climbing", a.Overall)
	default:
		return fmt.Sprintf("Mastery %.0f%%", a.Overall)
	}
}
