package search

import (
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/filter"
	"github.com/kailas-cloud/imgdex/internal/domain/search/hit"
	"github.com/kailas-cloud/imgdex/internal/domain/search/request"
	"github.com/kailas-cloud/imgdex/internal/domain/search/strategy"
)

func newScorer() *Scorer {
	cfg := DefaultConfig()
	return NewScorer(cfg.Weights, cfg.StaleAfter)
}

func freshMeta() *image.Metadata {
	return &image.Metadata{Scene: "beach", Confidence: 0.9, ProcessedAt: testNow.Add(-time.Hour)}
}

func TestTerms(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"Sunset over the Ocean", []string{"sunset", "over", "ocean"}},
		{"a dog and a dog", []string{"dog"}},
		{"x y z", nil},
		{"beach-house_2024.jpg", []string{"beach", "house", "2024", "jpg"}},
		{"", nil},
	}
	for _, tc := range tests {
		if got := Terms(tc.query); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Terms(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestScore_LexicalComponents(t *testing.T) {
	req := mustRequest(t, request.Params{Query: "golden beach", Strategies: strategy.NewSet(strategy.Semantic)})
	rec := image.Record{
		ID:               "a",
		Description:      "Golden hour on a quiet beach",
		Tags:             "beach, summer",
		OriginalFilename: "golden_gate.png",
	}
	meta := freshMeta()
	meta.AITags = []string{"golden sand"}

	got := newScorer().Score(req, hit.Hit{ImageID: "a", Confidence: 0.6, Strategy: strategy.Semantic}, rec, meta, testNow)

	if !approx(got.Breakdown.Description, 0.35) {
		t.Errorf("description = %v, want 0.35", got.Breakdown.Description)
	}
	if !approx(got.Breakdown.Tag, 0.30) {
		t.Errorf("tag = %v, want 0.30 (manual and AI tags together)", got.Breakdown.Tag)
	}
	if !approx(got.Breakdown.Filename, 0.05) {
		t.Errorf("filename = %v, want 0.05", got.Breakdown.Filename)
	}
	// 0.10*0.6 + 0.05*(3-1)
	if !approx(got.Breakdown.Bonus, 0.16) {
		t.Errorf("bonus = %v, want 0.16", got.Breakdown.Bonus)
	}
	if got.Breakdown.Penalty != 0 {
		t.Errorf("penalty = %v, want 0", got.Breakdown.Penalty)
	}
	if got.Explanation != "matched description, tags and filename" {
		t.Errorf("explanation = %q", got.Explanation)
	}
}

func TestScore_MetadataMatches(t *testing.T) {
	filters, err := filter.New(map[string]string{"format": "PNG", "orientation": "portrait"})
	if err != nil {
		t.Fatalf("filter.New: %v", err)
	}
	req := mustRequest(t, request.Params{
		Query:      "landscape",
		ColorQuery: "teal",
		SceneType:  "beach",
		Filters:    filters,
		Strategies: strategy.NewSet(strategy.Semantic, strategy.Color, strategy.Scene),
	})
	rec := image.Record{
		ID:             "a",
		Format:         "png",
		Orientation:    "landscape",
		DominantColors: []string{"Teal", "white"},
	}

	got := newScorer().Score(req, hit.Hit{ImageID: "a", Confidence: 0.5, Strategy: strategy.Color}, rec, freshMeta(), testNow)

	// format filter, color, scene and the query naming the orientation: 4 matches, capped at 0.15
	if !approx(got.Breakdown.Metadata, 0.15) {
		t.Errorf("metadata = %v, want 0.15", got.Breakdown.Metadata)
	}
	// 0.10*0.5 + scene bonus
	if !approx(got.Breakdown.Bonus, 0.10) {
		t.Errorf("bonus = %v, want 0.10", got.Breakdown.Bonus)
	}
	if got.Explanation != "matched metadata; scene classification bonus applied" {
		t.Errorf("explanation = %q", got.Explanation)
	}
}

func TestScore_Penalties(t *testing.T) {
	req := mustRequest(t, request.Params{Query: "owl", Strategies: strategy.NewSet(strategy.Semantic)})
	rec := image.Record{ID: "a"}
	h := hit.Hit{ImageID: "a", Confidence: 0.5, Strategy: strategy.Semantic}
	sc := newScorer()

	tests := []struct {
		name        string
		meta        *image.Metadata
		penalty     float64
		explanation string
	}{
		{"missing", nil, -0.05, "no direct signal matched; no AI metadata"},
		{"fresh", freshMeta(), 0, "no direct signal matched"},
		{
			"stale",
			&image.Metadata{Confidence: 0.9, ProcessedAt: testNow.AddDate(0, 0, -91)},
			-0.03,
			"no direct signal matched; stale AI metadata",
		},
		{
			"stale and unsure",
			&image.Metadata{Confidence: 0.1, ProcessedAt: testNow.AddDate(-1, 0, 0)},
			-0.05,
			"no direct signal matched; stale AI metadata; low AI confidence",
		},
		{
			"unsure",
			&image.Metadata{Confidence: 0.29, ProcessedAt: testNow},
			-0.02,
			"no direct signal matched; low AI confidence",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := sc.Score(req, h, rec, tc.meta, testNow)
			if !approx(got.Breakdown.Penalty, tc.penalty) {
				t.Errorf("penalty = %v, want %v", got.Breakdown.Penalty, tc.penalty)
			}
			if got.Explanation != tc.explanation {
				t.Errorf("explanation = %q, want %q", got.Explanation, tc.explanation)
			}
		})
	}
}

func TestScore_BonusCapped(t *testing.T) {
	req := mustRequest(t, request.Params{
		Query:      "sunset beach",
		SceneType:  "beach",
		Strategies: strategy.NewSet(strategy.Semantic, strategy.Scene),
	})
	rec := image.Record{
		ID:               "a",
		Description:      "sunset beach",
		Tags:             "sunset, beach",
		OriginalFilename: "sunset-beach.jpg",
	}
	got := newScorer().Score(req, hit.Hit{ImageID: "a", Confidence: 1, Strategy: strategy.Scene}, rec, freshMeta(), testNow)

	if !approx(got.Breakdown.Bonus, 0.25) {
		t.Errorf("bonus = %v, want cap 0.25", got.Breakdown.Bonus)
	}
	if got.Total != 1 {
		t.Errorf("total = %v, want clamped 1", got.Total)
	}
	want := "matched description, tags, filename and metadata; high strategy confidence; scene classification bonus applied"
	if got.Explanation != want {
		t.Errorf("explanation = %q", got.Explanation)
	}
}

func TestScore_Deterministic(t *testing.T) {
	req := mustRequest(t, request.Params{Query: "red bicycle", Strategies: strategy.NewSet(strategy.Semantic)})
	rec := image.Record{ID: "a", Description: "a red bicycle", Tags: "bike"}
	h := hit.Hit{ImageID: "a", Confidence: 0.7, Strategy: strategy.Semantic}
	sc := newScorer()

	first := sc.Score(req, h, rec, freshMeta(), testNow)
	for range 5 {
		again := sc.Score(req, h, rec, freshMeta(), testNow)
		if again.Breakdown != first.Breakdown || again.Explanation != first.Explanation {
			t.Fatalf("score changed between runs: %+v vs %+v", first.Breakdown, again.Breakdown)
		}
	}
}
