package metrics

const (
	// DefaultStreakCap is the streak length that earns a full streak score.
	DefaultStreakCap = 8

	// DefaultTrendWindow is the size of each trend sub-window.
	DefaultTrendWindow = 10

	// DefaultGuessRatio is the fraction of the expected solve time below which
	// an answer is treated as a likely guess.
	DefaultGuessRatio = 0.25

	// neutralSpeed is reported when no timing data is available.
	neutralSpeed = 0.5
)

// Config tunes the metric calculator.
type Config struct {
	StreakCap         int
	TrendWindow       int
	GuessRatio        float64
	DifficultyWeights map[int]float64
}

// DefaultConfig returns the calculator defaults.
func DefaultConfig() Config {
	return Config{
		StreakCap:   DefaultStreakCap,
		TrendWindow: DefaultTrendWindow,
		GuessRatio:  DefaultGuessRatio,
		DifficultyWeights: map[int]float64{
			1: 1.0,
			2: 1.5,
			3: 2.0,
			4: 3.0,
		},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.StreakCap <= 0 {
		c.StreakCap = d.StreakCap
	}
	if c.TrendWindow <= 0 {
		c.TrendWindow = d.TrendWindow
	}
	if c.GuessRatio <= 0 || c.GuessRatio >= 1 {
		c.GuessRatio = d.GuessRatio
	}
	if len(c.DifficultyWeights) == 0 {
		c.DifficultyWeights = d.DifficultyWeights
	}
	return c
}

func (c Config) difficultyWeight(d int) float64 {
	if w, ok := c.DifficultyWeights[d]; ok && w > 0 {
		return w
	}
	return 1.0
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

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
