package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/search/filter"
	"github.com/kailas-cloud/imgdex/internal/domain/search/strategy"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in characters.
	MaxQueryLength       = 512
	MaxColorQueryLength  = 32
	MaxSceneTypeLength   = 64
	DefaultLimit         = 10
	MaxLimit             = 100
	DefaultMinConfidence = 0.5
)

// Params are the raw inputs of a search request. Nil Limit / MinConfidence take defaults.
type Params struct {
	Query         string
	ImageID       string
	ColorQuery    string
	SceneType     string
	Filters       filter.Set
	Limit         *int
	MinConfidence *float64
	Strategies    strategy.Set
}

// Request is a validated search query.
type Request struct {
	query         string
	imageID       string
	colorQuery    string
	sceneType     string
	filters       filter.Set
	limit         int
	minConfidence float64
	strategies    strategy.Set
}

// New validates and normalizes search parameters.
// Every requested strategy must have its input populated; at least one must be requested.
func New(p Params) (Request, error) {
	query := strings.TrimSpace(p.Query)
	imageID := strings.TrimSpace(p.ImageID)
	color := strings.TrimSpace(p.ColorQuery)
	scene := strings.TrimSpace(p.SceneType)

	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, invalid("query too long (max %d chars)", MaxQueryLength)
	}
	if len(imageID) > domain.MaxIDLength {
		return Request{}, invalid("image id too long (max %d)", domain.MaxIDLength)
	}
	if utf8.RuneCountInString(color) > MaxColorQueryLength {
		return Request{}, invalid("color query too long (max %d chars)", MaxColorQueryLength)
	}
	if utf8.RuneCountInString(scene) > MaxSceneTypeLength {
		return Request{}, invalid("scene type too long (max %d chars)", MaxSceneTypeLength)
	}

	limit := DefaultLimit
	if p.Limit != nil {
		limit = *p.Limit
	}
	if limit <= 0 {
		return Request{}, invalid("limit must be positive")
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	minConfidence := DefaultMinConfidence
	if p.MinConfidence != nil {
		minConfidence = *p.MinConfidence
	}
	if minConfidence < 0 || minConfidence > 1 {
		return Request{}, invalid("min confidence must be between 0 and 1")
	}

	if p.Strategies.IsEmpty() {
		return Request{}, invalid("no search signal: provide a query, image id, color or scene type")
	}
	inputs := map[strategy.Kind]string{
		strategy.Semantic: query,
		strategy.Visual:   imageID,
		strategy.Color:    color,
		strategy.Scene:    scene,
	}
	for _, k := range p.Strategies.Kinds() {
		if inputs[k] == "" {
			return Request{}, invalid("%s search requested without its input", k)
		}
	}

	return Request{
		query:         query,
		imageID:       imageID,
		colorQuery:    color,
		sceneType:     scene,
		filters:       p.Filters,
		limit:         limit,
		minConfidence: minConfidence,
		strategies:    p.Strategies,
	}, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// Query returns the free-text query.
func (r *Request) Query() string { return r.query }

// ImageID returns the reference image for similarity search.
func (r *Request) ImageID() string { return r.imageID }

// ColorQuery returns the requested color.
func (r *Request) ColorQuery() string { return r.colorQuery }

// SceneType returns the requested scene classification.
func (r *Request) SceneType() string { return r.sceneType }

// Filters returns the structural attribute filters.
func (r *Request) Filters() filter.Set { return r.filters }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// MinConfidence returns the minimum candidate confidence kept by the merge stage.
func (r *Request) MinConfidence() float64 { return r.minConfidence }

// Strategies returns the strategies the caller opted into.
func (r *Request) Strategies() strategy.Set { return r.strategies }
