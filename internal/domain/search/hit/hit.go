package hit

import "github.com/kailas-cloud/imgdex/internal/domain/search/strategy"

// MatchType tags how a candidate was found.
type MatchType string

// Match types.
const (
	MatchSemantic MatchType = "semantic"
	MatchVisual   MatchType = "visual_similarity"
	MatchColor    MatchType = "color"
	MatchScene    MatchType = "scene"
	MatchText     MatchType = "text"
)

// Matched-feature names reported by strategies.
const (
	FeatureAIDescription = "ai_description"
	FeatureAITags        = "ai_tags"
	FeatureDescription   = "description"
	FeatureTags          = "tags"
	FeatureScene         = "scene"
	FeatureObjects       = "objects"
	FeatureColors        = "colors"
)

// Hit is a single candidate produced by one strategy before merging.
type Hit struct {
	ImageID         string
	Confidence      float64
	MatchType       MatchType
	MatchedFeatures []string
	AIDescription   string
	Strategy        strategy.Kind
}

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
