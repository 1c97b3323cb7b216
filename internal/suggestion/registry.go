package suggestion

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Registry holds the configured rules in evaluation order.
type Registry struct {
	rules []Rule
}

// NewRegistry builds rules from specs. Disabled specs are skipped; names must
// be unique.
func NewRegistry(specs []RuleSpec) (*Registry, error) {
	seen := make(map[string]bool, len(specs))
	r := &Registry{}
	for _, spec := range specs {
		if spec.Disabled {
			continue
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("duplicate rule %q", spec.Name)
		}
		seen[spec.Name] = true

		rule, err := NewRule(spec)
		if err != nil {
			return nil, err
		}
		r.rules = append(r.rules, rule)
	}
	return r, nil
}

// DefaultRegistry returns the registry built from DefaultSpecs.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultSpecs())
	if err != nil {
		panic(fmt.Sprintf("default rules: %v", err))
	}
	return r
}

// Register appends a rule, typically a custom implementation.
func (r *Registry) Register(rule Rule) error {
	for _, existing := range r.rules {
		if existing.Name() == rule.Name() {
			return fmt.Errorf("duplicate rule %q", rule.Name())
		}
	}
	r.rules = append(r.rules, rule)
	return nil
}

// Rules returns every registered rule.
func (r *Registry) Rules() []Rule {
	return r.rules
}

// Select returns the rules responding to any of triggers, paired with the
// first requested trigger each responds to.
func (r *Registry) Select(triggers []TriggerType) []Selected {
	var out []Selected
	for _, rule := range r.rules {
		if t, ok := firstMatch(triggers, rule.Triggers()); ok {
			out = append(out, Selected{Rule: rule, Trigger: t})
		}
	}
	return out
}

// Selected is a rule chosen for evaluation under a trigger.
type Selected struct {
	Rule    Rule
	Trigger TriggerType
}

func firstMatch(requested, supported []TriggerType) (TriggerType, bool) {
	for _, t := range requested {
		for _, s := range supported {
			if t == s {
				return t, true
			}
		}
	}
	return "", false
}

// rulesFile is the YAML layout of a rules file.
type rulesFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// LoadSpecs decodes rule specs from YAML.
func LoadSpecs(r io.Reader) ([]RuleSpec, error) {
	var f rulesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return f.Rules, nil
}

// LoadRegistryFile builds a registry from a YAML rules file.
func LoadRegistryFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()

	specs, err := LoadSpecs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewRegistry(specs)
}

// DefaultSpecs returns the built-in rule set.
func DefaultSpecs() []RuleSpec {
	day := 24 * time.Hour
	return []RuleSpec{
		{
			Name: "exam-weak-areas", Kind: "exam_weak_areas",
			Triggers: []TriggerType{TriggerExamProximity, TriggerDailyAnalysis},
			Category: CategoryExamPrep, Priority: 90, TTL: day,
			Params: map[string]float64{"within_days": 30, "min_weak": 2, "threshold": 50},
		},
		{
			Name: "reviews-overdue", Kind: "reviews_overdue",
			Triggers: []TriggerType{TriggerReviewDue, TriggerDailyAnalysis},
			Category: CategoryReview, Priority: 80, TTL: day,
			Params: map[string]float64{"min_due": 3},
		},
		{
			Name: "mastery-drop", Kind: "mastery_drop",
			Triggers: []TriggerType{TriggerDailyAnalysis},
			Category: CategoryDecline, Priority: 70, TTL: 2 * day,
			Params: map[string]float64{"drop": 10},
		},
		{
			Name: "weak-area", Kind: "weak_area",
			Triggers: []TriggerType{TriggerDailyAnalysis},
			Category: CategoryWeakArea, Priority: 60, TTL: day,
			Params: map[string]float64{"threshold": 50},
		},
		{
			Name: "inactivity", Kind: "inactivity",
			Triggers: []TriggerType{TriggerDailyAnalysis},
			Category: CategoryPractice, Priority: 50, TTL: day,
			Params: map[string]float64{"days": 3},
		},
		{
			Name: "getting-started", Kind: "getting_started",
			Triggers: []TriggerType{TriggerOnboarding, TriggerDailyAnalysis},
			Category: CategoryPractice, Priority: 40, TTL: 3 * day,
		},
		{
			Name: "momentum", Kind: "momentum",
			Triggers: []TriggerType{TriggerDailyAnalysis},
			Category: CategoryMomentum, Priority: 30, TTL: day,
			Params: map[string]float64{"min_improvement": 0.15},
		},
	}
}
