package search

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/imgdex/internal/domain/search/result"
)

// Weights are the scoring constants. Zero values are not replaced; use DefaultWeights.
type Weights struct {
	Description  float64
	Tag          float64
	Filename     float64
	Metadata     float64 // cap for the metadata component
	MetadataStep float64

	ConfidenceWeight     float64
	MultiSignalStep      float64
	HighConfidenceBonus  float64
	HighConfidenceCutoff float64
	SceneBonus           float64
	MaxBonus             float64

	MissingMetadata       float64
	StaleMetadata         float64
	LowAIConfidence       float64
	LowAIConfidenceCutoff float64
}

// DefaultWeights returns the production scoring constants.
func DefaultWeights() Weights {
	return Weights{
		Description:           0.35,
		Tag:                   0.30,
		Filename:              0.10,
		Metadata:              0.15,
		MetadataStep:          0.05,
		ConfidenceWeight:      0.10,
		MultiSignalStep:       0.05,
		HighConfidenceBonus:   0.05,
		HighConfidenceCutoff:  0.8,
		SceneBonus:            0.05,
		MaxBonus:              0.25,
		MissingMetadata:       0.05,
		StaleMetadata:         0.03,
		LowAIConfidence:       0.02,
		LowAIConfidenceCutoff: 0.3,
	}
}

// Config tunes strategies, scoring and enrichment.
type Config struct {
	Weights    Weights
	Thresholds result.Thresholds

	SemanticJitter float64
	VisualJitter   float64
	ColorJitter    float64

	ColorSampleSize    int
	FallbackSampleSize int

	StaleAfter time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Weights:            DefaultWeights(),
		Thresholds:         result.DefaultThresholds(),
		SemanticJitter:     0.1,
		VisualJitter:       0.2,
		ColorJitter:        0.2,
		ColorSampleSize:    100,
		FallbackSampleSize: 500,
		StaleAfter:         90 * 24 * time.Hour,
	}
}

// Validate checks the configuration for correctness.
func (c Config) Validate() error {
	w := c.Weights
	for name, v := range map[string]float64{
		"description": w.Description, "tag": w.Tag, "filename": w.Filename,
		"metadata": w.Metadata, "metadata_step": w.MetadataStep,
		"confidence_weight": w.ConfidenceWeight, "multi_signal_step": w.MultiSignalStep,
		"high_confidence_bonus": w.HighConfidenceBonus, "scene_bonus": w.SceneBonus,
		"max_bonus": w.MaxBonus, "missing_metadata": w.MissingMetadata,
		"stale_metadata": w.StaleMetadata, "low_ai_confidence": w.LowAIConfidence,
		"semantic_jitter": c.SemanticJitter, "visual_jitter": c.VisualJitter,
		"color_jitter": c.ColorJitter,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("search weight %s must be within [0,1], got %g", name, v)
		}
	}
	if c.ColorSampleSize <= 0 || c.FallbackSampleSize <= 0 {
		return fmt.Errorf("search sample sizes must be positive")
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("search stale_after must be positive")
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	return nil
}
