package mastery

const (
	// DefaultMasteredThreshold is the subtopic mastery at or above which a
	// subtopic counts toward masteredCount.
	DefaultMasteredThreshold = 80.0

	// DefaultImprovementWeight scales trend improvement in the strength index.
	DefaultImprovementWeight = 0.3

	// DefaultConsistencyFloor is the strength multiplier at zero consistency.
	DefaultConsistencyFloor = 0.85
)

// Weights are the component weights of a subtopic mastery score.
// HintPenalty is subtracted per unit of hint dependency.
type Weights struct {
	Accuracy    float64 `yaml:"accuracy"`
	Difficulty  float64 `yaml:"difficulty"`
	Speed       float64 `yaml:"speed"`
	Streak      float64 `yaml:"streak"`
	HintPenalty float64 `yaml:"hint_penalty"`
}

// DefaultWeights returns the default mastery score weights.
func DefaultWeights() Weights {
	return Weights{
		Accuracy:    0.45,
		Difficulty:  0.30,
		Speed:       0.15,
		Streak:      0.10,
		HintPenalty: 0.10,
	}
}

// Config tunes the aggregator.
type Config struct {
	Weights           Weights
	MasteredThreshold float64
	ImprovementWeight float64
	ConsistencyFloor  float64
}

// DefaultConfig returns the aggregator defaults.
func DefaultConfig() Config {
	return Config{
		Weights:           DefaultWeights(),
		MasteredThreshold: DefaultMasteredThreshold,
		ImprovementWeight: DefaultImprovementWeight,
		ConsistencyFloor:  DefaultConsistencyFloor,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Weights == (Weights{}) {
		c.Weights = d.Weights
	}
	if c.MasteredThreshold <= 0 {
		c.MasteredThreshold = d.MasteredThreshold
	}
	if c.ImprovementWeight < 0 {
		c.ImprovementWeight = d.ImprovementWeight
	}
	if c.ConsistencyFloor <= 0 || c.ConsistencyFloor > 1 {
		c.ConsistencyFloor = d.ConsistencyFloor
	}
	return c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
