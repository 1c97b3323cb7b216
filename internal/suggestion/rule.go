package suggestion

import (
	"fmt"
	"time"
)

// DefaultTTL is how long a suggestion is displayed when its rule sets none.
const DefaultTTL = 24 * time.Hour

// Rule inspects a snapshot and proposes suggestions.
type Rule interface {
	Name() string
	Triggers() []TriggerType
	Evaluate(s *Snapshot) ([]Candidate, error)
}

// RuleSpec is the data form of a rule instance.
type RuleSpec struct {
	Name     string             `yaml:"name"`
	Kind     string             `yaml:"kind"`
	Triggers []TriggerType      `yaml:"triggers"`
	Category Category           `yaml:"category"`
	Priority int                `yaml:"priority"`
	TTL      time.Duration      `yaml:"ttl"`
	Params   map[string]float64 `yaml:"params"`
	Disabled bool               `yaml:"disabled"`
}

// param returns a named parameter or def when unset.
func (s RuleSpec) param(name string, def float64) float64 {
	if v, ok := s.Params[name]; ok {
		return v
	}
	return def
}

// ruleBase carries the spec fields every built-in rule shares.
type ruleBase struct {
	spec RuleSpec
}

func (b ruleBase) Name() string            { return b.spec.Name }
func (b ruleBase) Triggers() []TriggerType { return b.spec.Triggers }

// candidate builds a Candidate with the spec's category and TTL. boost is
// added to the base priority.
func (b ruleBase) candidate(boost int, msg, actionName, actionURL string) Candidate {
	ttl := b.spec.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Candidate{
		Rule:       b.spec.Name,
		Category:   b.spec.Category,
		Priority:   b.spec.Priority + boost,
		Message:    msg,
		ActionName: actionName,
		ActionURL:  actionURL,
		TTL:        ttl,
	}
}

// Factory builds a rule from its spec.
type Factory func(spec RuleSpec) Rule

var factories = map[string]Factory{
	"mastery_drop":    func(s RuleSpec) Rule { return masteryDrop{ruleBase{s}} },
	"reviews_overdue": func(s RuleSpec) Rule { return reviewsOverdue{ruleBase{s}} },
	"exam_weak_areas": func(s RuleSpec) Rule { return examWeakAreas{ruleBase{s}} },
	"weak_area":       func(s RuleSpec) Rule { return weakArea{ruleBase{s}} },
	"momentum":        func(s RuleSpec) Rule { return momentum{ruleBase{s}} },
	"inactivity":      func(s RuleSpec) Rule { return inactivity{ruleBase{s}} },
	"getting_started": func(s RuleSpec) Rule { return gettingStarted{ruleBase{s}} },
}

// Kinds lists the built-in rule kinds.
func Kinds() []string {
	return []string{
		"mastery_drop", "reviews_overdue", "exam_weak_areas",
		"weak_area", "momentum", "inactivity", "getting_started",
	}
}

// NewRule builds a rule from spec.
func NewRule(spec RuleSpec) (Rule, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("rule spec: missing name")
	}
	f, ok := factories[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("rule %q: unknown kind %q", spec.Name, spec.Kind)
	}
	if len(spec.Triggers) == 0 {
		return nil, fmt.Errorf("rule %q: no triggers", spec.Name)
	}
	if spec.Category == "" {
		return nil, fmt.Errorf("rule %q: missing category", spec.Name)
	}
	return f(spec), nil
}
