package imgdex

import (
	"strings"
	"time"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/result"
	"github.com/kailas-cloud/imgdex/internal/domain/search/strategy"
)

// Image is a catalog entry. Metadata is nil until the image is described.
type Image struct {
	ID               string
	URL              string
	ThumbnailURL     string
	OriginalFilename string
	Description      string
	Tags             []string

	Format      string
	SizeBytes   int64
	Width       int
	Height      int
	Resolution  string
	Orientation string
	Category    string

	DominantColors  []string
	HasTransparency bool
	IsAnimated      bool
	Brightness      string

	Status    string // active (default), disabled, processing
	Deleted   bool
	CreatedAt time.Time

	Metadata *Metadata
}

// Metadata is AI-generated descriptive metadata.
type Metadata struct {
	Description string
	Tags        []string
	Scene       string
	Objects     []string
	Palette     string
	OCRText     string
	Confidence  float64
	ProcessedAt time.Time
}

// Query selects which strategies run. Each non-empty input enables its
// strategy unless Strategies lists them explicitly.
type Query struct {
	Text    string
	ImageID string
	Color   string
	Scene   string

	// Filters keys: format, resolution, orientation, category.
	Filters       map[string]string
	Limit         int      // 0 = default (10)
	MinConfidence *float64 // nil = default (0.5)
	Strategies    []string // semantic, visual, color, scene
}

// Breakdown holds the named components of a result score.
type Breakdown struct {
	Description float64
	Tag         float64
	Filename    float64
	Metadata    float64
	Bonus       float64
	Penalty     float64
}

// Result is one ranked search hit.
type Result struct {
	Image           Image
	Score           float64
	Breakdown       Breakdown
	Level           string // VERY_HIGH .. VERY_LOW
	MatchType       string
	MatchedFeatures []string
	Explanation     string
}

// StrategyFailure reports a strategy that produced no hits.
type StrategyFailure struct {
	Strategy string
	Reason   string
}

// Response is a ranked result page with summary statistics.
type Response struct {
	Query             string
	Results           []Result
	AverageConfidence float64
	HighestConfidence float64
	Quality           string // EXCELLENT .. NO_RESULTS
	Strategies        []string
	Failures          []StrategyFailure
	Suggestions       []string
	Took              time.Duration
}

// ItemResult is the outcome of one image in Import or Remove.
type ItemResult struct {
	ID  string
	Err error
}

// OK reports whether the item succeeded.
func (r ItemResult) OK() bool { return r.Err == nil }

func imageToRecord(img *Image) image.Record {
	status := image.StatusActive
	if img.Status != "" {
		status = image.Status(img.Status)
	}
	return image.Record{
		ID:               img.ID,
		URL:              img.URL,
		ThumbnailURL:     img.ThumbnailURL,
		OriginalFilename: img.OriginalFilename,
		Description:      img.Description,
		Tags:             strings.Join(img.Tags, ", "),
		Format:           img.Format,
		SizeBytes:        img.SizeBytes,
		Width:            img.Width,
		Height:           img.Height,
		Resolution:       img.Resolution,
		Orientation:      img.Orientation,
		Category:         img.Category,
		DominantColors:   img.DominantColors,
		HasTransparency:  img.HasTransparency,
		IsAnimated:       img.IsAnimated,
		Brightness:       img.Brightness,
		Status:           status,
		Deleted:          img.Deleted,
		CreatedAt:        img.CreatedAt,
	}
}

func imageFromRecord(rec *image.Record, md *image.Metadata) Image {
	return Image{
		ID:               rec.ID,
		URL:              rec.URL,
		ThumbnailURL:     rec.ThumbnailURL,
		OriginalFilename: rec.OriginalFilename,
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
		HasTransparency:  rec.HasTransparency,
		IsAnimated:       rec.IsAnimated,
		Brightness:       rec.Brightness,
		Status:           string(rec.Status),
		Deleted:          rec.Deleted,
		CreatedAt:        rec.CreatedAt,
		Metadata:         metadataFromDomain(md),
	}
}

func metadataFromDomain(md *image.Metadata) *Metadata {
	if md == nil {
		return nil
	}
	return &Metadata{
		Description: md.AIDescription,
		Tags:        md.AITags,
		Scene:       md.Scene,
		Objects:     md.Objects,
		Palette:     md.Palette,
		OCRText:     md.OCRText,
		Confidence:  md.Confidence,
		ProcessedAt: md.ProcessedAt,
	}
}

func metadataToDomain(imageID string, m *Metadata) image.Metadata {
	return image.Metadata{
		ImageID:       imageID,
		AIDescription: m.Description,
		AITags:        m.Tags,
		Scene:         m.Scene,
		Objects:       m.Objects,
		Palette:       m.Palette,
		OCRText:       m.OCRText,
		Confidence:    m.Confidence,
		ProcessedAt:   m.ProcessedAt,
	}
}

func responseFromDomain(r *result.Response) *Response {
	out := &Response{
		Query:             r.Query,
		Results:           make([]Result, 0, len(r.Results)),
		AverageConfidence: r.AverageConfidence,
		HighestConfidence: r.HighestConfidence,
		Quality:           string(r.Quality),
		Strategies:        kindsToStrings(r.Strategies),
		Failures:          failuresFromDomain(r.Failures),
		Suggestions:       r.Insights.Suggestions,
		Took:              r.Took,
	}
	for i := range r.Results {
		s := &r.Results[i]
		out.Results = append(out.Results, Result{
			Image:           imageFromRecord(&s.Record, s.Metadata),
			Score:           s.Total,
			Breakdown:       Breakdown(s.Breakdown),
			Level:           string(s.Level),
			MatchType:       string(s.MatchType),
			MatchedFeatures: s.MatchedFeatures,
			Explanation:     s.Explanation,
		})
	}
	return out
}

func kindsToStrings(kinds []strategy.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func failuresFromDomain(fs []domain.StrategyFailure) []StrategyFailure {
	if len(fs) == 0 {
		return nil
	}
	out := make([]StrategyFailure, len(fs))
	for i, f := range fs {
		out[i] = StrategyFailure{Strategy: f.Strategy, Reason: f.Reason()}
	}
	return out
}
