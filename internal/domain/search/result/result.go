package result

import (
	"time"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/hit"
	"github.com/kailas-cloud/imgdex/internal/domain/search/strategy"
)

// Breakdown holds the named components of a composite score.
// Penalty is zero or negative; every other component is zero or positive.
type Breakdown struct {
	Description float64
	Tag         float64
	Filename    float64
	Metadata    float64
	Bonus       float64
	Penalty     float64
}

// Sum adds all components without clamping.
func (b Breakdown) Sum() float64 {
	return b.Description + b.Tag + b.Filename + b.Metadata + b.Bonus + b.Penalty
}

// Total returns the sum clamped to [0, 1].
func (b Breakdown) Total() float64 {
	return hit.Clamp01(b.Sum())
}

// Scored is one ranked search result.
type Scored struct {
	Record          image.Record
	Metadata        *image.Metadata
	Breakdown       Breakdown
	Total           float64
	Explanation     string
	Level           ConfidenceLevel
	MatchType       hit.MatchType
	MatchedFeatures []string
	HitConfidence   float64
}

// MatchDistribution is the share of score mass per lexical/structural signal.
type MatchDistribution struct {
	Description float64
	Tags        float64
	Filename    float64
	Metadata    float64
}

// CommonPatterns lists distinct attribute values seen among results, in result order.
type CommonPatterns struct {
	Formats      []string
	Resolutions  []string
	Orientations []string
	Categories   []string
}

// Insights summarizes a result set.
type Insights struct {
	Distribution *MatchDistribution // nil when there are no results
	Patterns     CommonPatterns
	Suggestions  []string // only set when there are no results
}

// Response is the outcome of a search.
type Response struct {
	Query             string
	Results           []Scored
	AverageConfidence float64
	HighestConfidence float64
	Quality           Quality
	Insights          Insights
	Strategies        []strategy.Kind
	Failures          []domain.StrategyFailure
	Took              time.Duration
}

// TotalResults returns the number of results.
func (r *Response) TotalResults() int { return len(r.Results) }
