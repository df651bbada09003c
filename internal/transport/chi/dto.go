package chi

import (
	"time"

	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/result"
	domusage "github.com/kailas-cloud/imgdex/internal/domain/usage"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeImageNotFound          ErrorCode = "image_not_found"
	ErrorCodeAllStrategiesFailed    ErrorCode = "all_strategies_failed"
	ErrorCodeCatalogUnavailable     ErrorCode = "catalog_unavailable"
	ErrorCodeDescriberUnavailable   ErrorCode = "describer_unavailable"
	ErrorCodeDescriberQuotaExceeded ErrorCode = "describer_quota_exceeded"
	ErrorCodeNotFound               ErrorCode = "not_found"
	ErrorCodeMethodNotAllowed       ErrorCode = "method_not_allowed"
	ErrorCodeNotImplemented         ErrorCode = "not_implemented"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code     ErrorCode         `json:"code"`
	Message  string            `json:"message"`
	Failures []StrategyFailure `json:"failures,omitempty"`
}

// StrategyFailure names a strategy that produced no hits and why.
type StrategyFailure struct {
	Strategy string `json:"strategy"`
	Reason   string `json:"reason"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query         string            `json:"query"`
	ImageID       string            `json:"imageId,omitempty"`
	ColorQuery    string            `json:"colorQuery,omitempty"`
	SceneType     string            `json:"sceneType,omitempty"`
	Filters       map[string]string `json:"filters,omitempty"`
	Limit         *int              `json:"limit,omitempty"`
	MinConfidence *float64          `json:"minConfidence,omitempty"`
	SearchTypes   []string          `json:"searchTypes,omitempty"`
}

// SimilarParams are the query parameters of GET /v1/images/{id}/similar.
type SimilarParams struct {
	Limit         *int     `form:"limit,omitempty"`
	MinConfidence *float64 `form:"minConfidence,omitempty"`
}

// DescribeParams are the query parameters of POST /v1/images/{id}/describe.
type DescribeParams struct {
	Force *bool `form:"force,omitempty"`
}

// UsageParams are the query parameters of GET /v1/usage.
type UsageParams struct {
	Period *string `form:"period,omitempty"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Query             string            `json:"query"`
	TotalResults      int               `json:"totalResults"`
	Results           []SearchResult    `json:"results"`
	AverageConfidence float64           `json:"averageConfidence"`
	HighestConfidence float64           `json:"highestConfidence"`
	SearchQuality     string            `json:"searchQuality"`
	Insights          Insights          `json:"insights"`
	SearchTypes       []string          `json:"searchTypes"`
	Failures          []StrategyFailure `json:"failures,omitempty"`
	TookMs            int64             `json:"tookMs"`
}

// SearchResult is one ranked image.
type SearchResult struct {
	ImageID          string        `json:"imageId"`
	TotalScore       float64       `json:"totalScore"`
	DescriptionScore float64       `json:"descriptionScore"`
	TagScore         float64       `json:"tagScore"`
	FilenameScore    float64       `json:"filenameScore"`
	MetadataScore    float64       `json:"metadataScore"`
	BonusScore       float64       `json:"bonusScore"`
	PenaltyScore     float64       `json:"penaltyScore"`
	Explanation      string        `json:"explanation"`
	ConfidenceLevel  string        `json:"confidenceLevel"`
	MatchType        string        `json:"matchType"`
	MatchedFeatures  []string      `json:"matchedFeatures"`
	HitConfidence    float64       `json:"hitConfidence"`
	URL              string        `json:"url"`
	ThumbnailURL     string        `json:"thumbnailUrl,omitempty"`
	OriginalFilename string        `json:"originalFilename,omitempty"`
	Description      string        `json:"description,omitempty"`
	Tags             []string      `json:"tags,omitempty"`
	Format           string        `json:"format,omitempty"`
	SizeBytes        int64         `json:"sizeBytes,omitempty"`
	Width            int           `json:"width,omitempty"`
	Height           int           `json:"height,omitempty"`
	Resolution       string        `json:"resolution,omitempty"`
	Orientation      string        `json:"orientation,omitempty"`
	Category         string        `json:"category,omitempty"`
	DominantColors   []string      `json:"dominantColors,omitempty"`
	CreatedAt        *time.Time    `json:"createdAt,omitempty"`
	AIMetadata       *ImageDetails `json:"aiMetadata,omitempty"`
}

// ImageDetails is AI-generated descriptive metadata.
type ImageDetails struct {
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Scene       string     `json:"scene"`
	Objects     []string   `json:"objects,omitempty"`
	Palette     string     `json:"palette,omitempty"`
	OCRText     string     `json:"ocrText,omitempty"`
	Confidence  float64    `json:"confidence"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

// Insights summarizes the result set.
type Insights struct {
	MatchDistribution *MatchDistribution `json:"matchDistribution,omitempty"`
	CommonPatterns    CommonPatterns     `json:"commonPatterns"`
	Suggestions       []string           `json:"suggestions,omitempty"`
}

// MatchDistribution is the share of score mass per signal.
type MatchDistribution struct {
	Description float64 `json:"description"`
	Tags        float64 `json:"tags"`
	Filename    float64 `json:"filename"`
	Metadata    float64 `json:"metadata"`
}

// CommonPatterns lists distinct attribute values seen among results.
type CommonPatterns struct {
	Formats      []string `json:"formats"`
	Resolutions  []string `json:"resolutions"`
	Orientations []string `json:"orientations"`
	Categories   []string `json:"categories"`
}

// DescribeResponse is the body of POST /v1/images/{id}/describe.
type DescribeResponse struct {
	ImageID   string       `json:"imageId"`
	Generated bool         `json:"generated"`
	Metadata  ImageDetails `json:"metadata"`
}

// UsageResponse is the body of GET /v1/usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider,omitempty"`
	PeriodStartAt time.Time    `json:"periodStartAt"`
	PeriodEndAt   time.Time    `json:"periodEndAt"`
	Budget        BudgetStatus `json:"budget"`
}

// BudgetStatus is the describer token budget for the period.
type BudgetStatus struct {
	TokensLimit     int64 `json:"tokensLimit"`
	TokensUsed      int64 `json:"tokensUsed"`
	TokensRemaining int64 `json:"tokensRemaining"`
	IsExhausted     bool  `json:"isExhausted"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func searchResponseFromDomain(resp *result.Response) SearchResponse {
	results := make([]SearchResult, len(resp.Results))
	for i := range resp.Results {
		results[i] = searchResultFromDomain(&resp.Results[i])
	}

	types := make([]string, len(resp.Strategies))
	for i, k := range resp.Strategies {
		types[i] = string(k)
	}

	var failures []StrategyFailure
	for _, f := range resp.Failures {
		failures = append(failures, StrategyFailure{Strategy: f.Strategy, Reason: safeDomainMessage(f.Err)})
	}

	out := SearchResponse{
		Query:             resp.Query,
		TotalResults:      resp.TotalResults(),
		Results:           results,
		AverageConfidence: resp.AverageConfidence,
		HighestConfidence: resp.HighestConfidence,
		SearchQuality:     string(resp.Quality),
		SearchTypes:       types,
		Failures:          failures,
		TookMs:            resp.Took.Milliseconds(),
		Insights: Insights{
			CommonPatterns: CommonPatterns{
				Formats:      nonNil(resp.Insights.Patterns.Formats),
				Resolutions:  nonNil(resp.Insights.Patterns.Resolutions),
				Orientations: nonNil(resp.Insights.Patterns.Orientations),
				Categories:   nonNil(resp.Insights.Patterns.Categories),
			},
			Suggestions: resp.Insights.Suggestions,
		},
	}
	if d := resp.Insights.Distribution; d != nil {
		out.Insights.MatchDistribution = &MatchDistribution{
			Description: d.Description,
			Tags:        d.Tags,
			Filename:    d.Filename,
			Metadata:    d.Metadata,
		}
	}
	return out
}

func searchResultFromDomain(s *result.Scored) SearchResult {
	rec := &s.Record
	item := SearchResult{
		ImageID:          rec.ID,
		TotalScore:       s.Total,
		DescriptionScore: s.Breakdown.Description,
		TagScore:         s.Breakdown.Tag,
		FilenameScore:    s.Breakdown.Filename,
		MetadataScore:    s.Breakdown.Metadata,
		BonusScore:       s.Breakdown.Bonus,
		PenaltyScore:     s.Breakdown.Penalty,
		Explanation:      s.Explanation,
		ConfidenceLevel:  string(s.Level),
		MatchType:        string(s.MatchType),
		MatchedFeatures:  nonNil(s.MatchedFeatures),
		HitConfidence:    s.HitConfidence,
		URL:              rec.URL,
		ThumbnailURL:     rec.ThumbnailURL,
		OriginalFilename: rec.Filename(),
		Description:      rec.Description,
		Tags:             rec.TagList(),
		Format:           rec.Format,
		SizeBytes:        rec.SizeBytes,
		Width:            rec.Width,
		Height:           rec.Height,
		Resolution:       rec.Resolution,
		Orientation:      rec.Orientation,
		Category:         rec.Category,
		DominantColors:   rec.DominantColors,
		CreatedAt:        timePtr(rec.CreatedAt),
	}
	if s.Metadata != nil {
		md := imageDetailsFromDomain(s.Metadata)
		item.AIMetadata = &md
	}
	return item
}

func imageDetailsFromDomain(md *image.Metadata) ImageDetails {
	return ImageDetails{
		Description: md.AIDescription,
		Tags:        nonNil(md.AITags),
		Scene:       md.Scene,
		Objects:     md.Objects,
		Palette:     md.Palette,
		OCRText:     md.OCRText,
		Confidence:  md.Confidence,
		ProcessedAt: timePtr(md.ProcessedAt),
	}
}

func usageResponseFromDomain(r domusage.Report) UsageResponse {
	return UsageResponse{
		Period:        string(r.Period),
		Provider:      r.Provider,
		PeriodStartAt: r.PeriodStart,
		PeriodEndAt:   r.PeriodEnd,
		Budget: BudgetStatus{
			TokensLimit:     r.Budget.Limit,
			TokensUsed:      r.Budget.Used,
			TokensRemaining: r.Budget.Remaining,
			IsExhausted:     r.Budget.Exhausted(),
		},
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
