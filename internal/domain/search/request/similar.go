package request

import "github.com/kailas-cloud/imgdex/internal/domain/search/strategy"

// NewSimilar builds a visual-similarity-only request for a reference image.
// Nil limit / minConfidence take the usual defaults.
func NewSimilar(imageID string, limit *int, minConfidence *float64) (Request, error) {
	return New(Params{
		ImageID:       imageID,
		Limit:         limit,
		MinConfidence: minConfidence,
		Strategies:    strategy.NewSet(strategy.Visual),
	})
}
