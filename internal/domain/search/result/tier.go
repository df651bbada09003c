package result

import "fmt"

// ConfidenceLevel buckets a single result's total score.
type ConfidenceLevel string

// Confidence levels, highest first.
const (
	VeryHigh ConfidenceLevel = "VERY_HIGH"
	High     ConfidenceLevel = "HIGH"
	Medium   ConfidenceLevel = "MEDIUM"
	Low      ConfidenceLevel = "LOW"
	VeryLow  ConfidenceLevel = "VERY_LOW"
)

// Quality buckets a whole result set.
type Quality string

// Search quality tiers, best first.
const (
	Excellent Quality = "EXCELLENT"
	Good      Quality = "GOOD"
	Fair      Quality = "FAIR"
	Poor      Quality = "POOR"
	VeryPoor  Quality = "VERY_POOR"
	NoResults Quality = "NO_RESULTS"
)

// QualityCutoff is the minimum highest score, average score and result count for a tier.
type QualityCutoff struct {
	Highest  float64 `yaml:"highest"`
	Average  float64 `yaml:"average"`
	MinCount int     `yaml:"min_count"`
}

func (c QualityCutoff) met(highest, average float64, count int) bool {
	return highest >= c.Highest && average >= c.Average && count >= c.MinCount
}

// Thresholds configures confidence and quality bucketing.
type Thresholds struct {
	VeryHigh float64 `yaml:"very_high"`
	High     float64 `yaml:"high"`
	Medium   float64 `yaml:"medium"`
	Low      float64 `yaml:"low"`

	Excellent QualityCutoff `yaml:"excellent"`
	Good      QualityCutoff `yaml:"good"`
	Fair      QualityCutoff `yaml:"fair"`
	Poor      QualityCutoff `yaml:"poor"`
}

// DefaultThresholds returns the production bucketing constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VeryHigh:  0.8,
		High:      0.6,
		Medium:    0.4,
		Low:       0.2,
		Excellent: QualityCutoff{Highest: 0.8, Average: 0.6, MinCount: 5},
		Good:      QualityCutoff{Highest: 0.7, Average: 0.5, MinCount: 3},
		Fair:      QualityCutoff{Highest: 0.5, Average: 0.3},
		Poor:      QualityCutoff{Highest: 0.3},
	}
}

// Validate checks that tiers are within [0,1] and strictly descending.
func (t Thresholds) Validate() error {
	levels := []float64{t.VeryHigh, t.High, t.Medium, t.Low}
	for i, v := range levels {
		if v < 0 || v > 1 {
			return fmt.Errorf("confidence threshold %d out of range [0,1]: %g", i, v)
		}
		if i > 0 && v >= levels[i-1] {
			return fmt.Errorf("confidence thresholds must be strictly descending")
		}
	}
	cuts := []QualityCutoff{t.Excellent, t.Good, t.Fair, t.Poor}
	for i, c := range cuts {
		if c.Highest < 0 || c.Highest > 1 || c.Average < 0 || c.Average > 1 || c.MinCount < 0 {
			return fmt.Errorf("quality cutoff %d out of range", i)
		}
		if i > 0 && c.Highest > cuts[i-1].Highest {
			return fmt.Errorf("quality cutoffs must not increase")
		}
	}
	return nil
}

// Level buckets a total score.
func (t Thresholds) Level(score float64) ConfidenceLevel {
	switch {
	case score >= t.VeryHigh:
		return VeryHigh
	case score >= t.High:
		return High
	case score >= t.Medium:
		return Medium
	case score >= t.Low:
		return Low
	default:
		return VeryLow
	}
}

// Quality buckets a result set by its highest score, average score and size.
func (t Thresholds) Quality(highest, average float64, count int) Quality {
	switch {
	case count == 0:
		return NoResults
	case t.Excellent.met(highest, average, count):
		return Excellent
	case t.Good.met(highest, average, count):
		return Good
	case t.Fair.met(highest, average, count):
		return Fair
	case t.Poor.met(highest, average, count):
		return Poor
	default:
		return VeryPoor
	}
}
