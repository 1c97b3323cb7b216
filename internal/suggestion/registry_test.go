package suggestion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rulesYAML = `
rules:
  - name: slow-review
    kind: reviews_overdue
    triggers: [REVIEW_DUE]
    category: REVIEW
    priority: 75
    ttl: 48h
    params:
      min_due: 5
  - name: idle
    kind: inactivity
    triggers: [DAILY_ANALYSIS, WEEKLY_DIGEST]
    category: PRACTICE
    priority: 10
  - name: off
    kind: momentum
    triggers: [DAILY_ANALYSIS]
    category: MOMENTUM
    disabled: true
`

func TestLoadSpecs(t *testing.T) {
	specs, err := LoadSpecs(strings.NewReader(rulesYAML))
	require.NoError(t, err)
	require.Len(t, specs, 3)

	assert.Equal(t, "slow-review", specs[0].Name)
	assert.Equal(t, 48*time.Hour, specs[0].TTL)
	assert.Equal(t, 5.0, specs[0].Params["min_due"])
	assert.Equal(t, []TriggerType{TriggerDailyAnalysis, "WEEKLY_DIGEST"}, specs[1].Triggers)
	assert.True(t, specs[2].Disabled)
}

func TestLoadSpecs_UnknownField(t *testing.T) {
	_, err := LoadSpecs(strings.NewReader("rules:\n  - name: x\n    colour: red\n"))
	assert.Error(t, err)
}

func TestLoadRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rulesYAML), 0o644))

	reg, err := LoadRegistryFile(path)
	require.NoError(t, err)
	assert.Len(t, reg.Rules(), 2, "disabled rule skipped")

	// min_due of 5 is read from the file.
	cs, err := reg.Rules()[0].Evaluate(&Snapshot{Now: now, Due: dueEntries("a", "b", "c", "d")})
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestNewRegistry_Duplicate(t *testing.T) {
	specs := append(DefaultSpecs(), DefaultSpecs()[0])
	_, err := NewRegistry(specs)
	assert.ErrorContains(t, err, "duplicate")
}

func TestRegistrySelect(t *testing.T) {
	reg := DefaultRegistry()

	sel := reg.Select([]TriggerType{TriggerOnboarding})
	require.Len(t, sel, 1)
	assert.Equal(t, "getting-started", sel[0].Rule.Name())
	assert.Equal(t, TriggerOnboarding, sel[0].Trigger)

	sel = reg.Select([]TriggerType{TriggerExamProximity, TriggerDailyAnalysis})
	assert.Len(t, sel, len(reg.Rules()))
	for _, s := range sel {
		if s.Rule.Name() == "exam-weak-areas" {
			assert.Equal(t, TriggerExamProximity, s.Trigger)
		} else {
			assert.Equal(t, TriggerDailyAnalysis, s.Trigger)
		}
	}

	assert.Empty(t, reg.Select([]TriggerType{"UNKNOWN"}))
}

func TestRegister_Duplicate(t *testing.T) {
	reg := DefaultRegistry()
	err := reg.Register(funcRule{name: "momentum"})
	assert.Error(t, err)
}
