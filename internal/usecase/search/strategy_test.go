package search

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/hit"
	"github.com/kailas-cloud/imgdex/internal/domain/search/strategy"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSemantic_Confidence(t *testing.T) {
	cat := newMockCatalog()
	cat.add(image.Record{ID: "both"}, &image.Metadata{AIDescription: "A Golden Retriever", AITags: []string{"dog", "retriever"}})
	cat.add(image.Record{ID: "desc"}, &image.Metadata{AIDescription: "retriever on grass"})
	cat.add(image.Record{ID: "tags"}, &image.Metadata{AIDescription: "a dog", AITags: []string{"Retriever"}})

	svc := newTestService(cat, 0.5)
	hits, err := svc.semantic(context.Background(), "retriever")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]struct {
		conf     float64
		features []string
	}{
		"both": {1.0, []string{hit.FeatureAIDescription, hit.FeatureAITags}},
		"desc": {0.5 + 0.4 + 0.05, []string{hit.FeatureAIDescription}},
		"tags": {0.5 + 0.3 + 0.05, []string{hit.FeatureAITags}},
	}
	if len(hits) != len(want) {
		t.Fatalf("expected %d hits, got %d", len(want), len(hits))
	}
	for _, h := range hits {
		w := want[h.ImageID]
		if !approx(h.Confidence, w.conf) {
			t.Errorf("%s: confidence = %v, want %v", h.ImageID, h.Confidence, w.conf)
		}
		if !reflect.DeepEqual(h.MatchedFeatures, w.features) {
			t.Errorf("%s: features = %v, want %v", h.ImageID, h.MatchedFeatures, w.features)
		}
		if h.MatchType != hit.MatchSemantic || h.Strategy != strategy.Semantic {
			t.Errorf("%s: unexpected match type %q / strategy %q", h.ImageID, h.MatchType, h.Strategy)
		}
	}
}

func TestSemantic_JitterIsBounded(t *testing.T) {
	cat := newMockCatalog()
	cat.add(image.Record{ID: "a"}, &image.Metadata{AIDescription: "owl"})

	for _, draw := range []float64{0, 0.25, 0.999} {
		hits, err := newTestService(cat, draw).semantic(context.Background(), "owl")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := hits[0].Confidence
		if got < 0.9 || got > 1.0 {
			t.Errorf("draw %v: confidence %v outside [0.9, 1.0]", draw, got)
		}
	}
}

func TestText_Confidence(t *testing.T) {
	cat := newMockCatalog()
	cat.add(image.Record{ID: "desc", Description: "Harbor at dawn"}, nil)
	cat.add(image.Record{ID: "tags", Tags: "harbor;boats"}, nil)
	cat.add(image.Record{ID: "both", Description: "harbor", Tags: "harbor"}, nil)
	cat.add(image.Record{ID: "none", Description: "desert"}, nil)

	hits, err := newTestService(cat, 0.5).text(context.Background(), "harbor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := make(map[string]float64)
	for _, h := range hits {
		got[h.ImageID] = h.Confidence
		if h.MatchType != hit.MatchText {
			t.Errorf("%s: match type %q", h.ImageID, h.MatchType)
		}
	}
	want := map[string]float64{"desc": 0.8, "tags": 0.6, "both": 1.0}
	if len(got) != len(want) {
		t.Fatalf("hits = %v, want %v", got, want)
	}
	for id, c := range want {
		if !approx(got[id], c) {
			t.Errorf("%s: confidence %v, want %v", id, got[id], c)
		}
	}
}

func TestColor_MatchesTagsCaseInsensitive(t *testing.T) {
	cat := newMockCatalog()
	cat.add(image.Record{ID: "a", Tags: "Navy Blue, sea"}, nil)
	cat.add(image.Record{ID: "b", Tags: "red"}, nil)

	hits, err := newTestService(cat, 1.0).color(context.Background(), "BLUE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ImageID != "a" {
		t.Fatalf("hits = %+v", hits)
	}
	if !approx(hits[0].Confidence, 0.9) {
		t.Errorf("confidence = %v, want 0.9", hits[0].Confidence)
	}
	if !reflect.DeepEqual(hits[0].MatchedFeatures, []string{hit.FeatureTags}) {
		t.Errorf("features = %v", hits[0].MatchedFeatures)
	}
}

func TestColor_SampleSize(t *testing.T) {
	cat := newMockCatalog()
	for i := range 150 {
		cat.add(image.Record{ID: string(rune('A'+i%26)) + string(rune('a'+i/26)), Tags: "blue"}, nil)
	}
	hits, err := newTestService(cat, 0).color(context.Background(), "blue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != DefaultConfig().ColorSampleSize {
		t.Errorf("expected %d hits from the recent sample, got %d", DefaultConfig().ColorSampleSize, len(hits))
	}
}

func TestScene_UsesStoredConfidence(t *testing.T) {
	cat := newMockCatalog()
	cat.add(image.Record{ID: "a"}, &image.Metadata{Scene: "beach", Confidence: 0.72})
	cat.add(image.Record{ID: "b"}, &image.Metadata{Scene: "beach", Confidence: 1.4})
	cat.add(image.Record{ID: "c"}, &image.Metadata{Scene: "city", Confidence: 0.9})

	hits, err := newTestService(cat, 0.5).scene(context.Background(), "beach")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := make(map[string]float64)
	for _, h := range hits {
		got[h.ImageID] = h.Confidence
	}
	if len(got) != 2 || !approx(got["a"], 0.72) || !approx(got["b"], 1.0) {
		t.Errorf("scene hits = %v", got)
	}
}

func TestScene_RequiresExactLabel(t *testing.T) {
	cat := newMockCatalog()
	cat.add(image.Record{ID: "a"}, &image.Metadata{Scene: "Beach", Confidence: 0.9})
	cat.add(image.Record{ID: "b"}, &image.Metadata{Scene: "beach", Confidence: 0.8})

	svc := newTestService(foldingCatalog{cat}, 0.5)
	hits, err := svc.scene(context.Background(), "beach")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids(hits), []string{"b"}) {
		t.Errorf("ids = %v, want [b]", ids(hits))
	}
}

func TestVisual_SceneBoostRequiresExactLabel(t *testing.T) {
	cat := newMockCatalog()
	cat.add(image.Record{ID: "ref"}, &image.Metadata{Scene: "landscape"})
	cat.add(image.Record{ID: "same"}, &image.Metadata{Scene: "landscape"})
	cat.add(image.Record{ID: "cased"}, &image.Metadata{Scene: "Landscape"})

	hits, err := newTestService(foldingCatalog{cat}, 0).visual(context.Background(), "ref")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := make(map[string]float64)
	for _, h := range hits {
		got[h.ImageID] = h.Confidence
	}
	if !approx(got["same"], visualBase+visualSceneBoost) {
		t.Errorf("same = %v, want %v", got["same"], visualBase+visualSceneBoost)
	}
	if !approx(got["cased"], visualBase) {
		t.Errorf("cased = %v, want %v", got["cased"], visualBase)
	}
}

func TestVisual_NoSceneNoHits(t *testing.T) {
	cat := newMockCatalog()
	cat.add(image.Record{ID: "ref"}, &image.Metadata{AIDescription: "unclassified"})
	cat.add(image.Record{ID: "other"}, &image.Metadata{Scene: "landscape"})

	hits, err := newTestService(cat, 0.5).visual(context.Background(), "ref")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
	if cat.calls["FindByScene"] != 0 {
		t.Error("FindByScene should not be called without a reference scene")
	}
}

func TestLockedSource_Deterministic(t *testing.T) {
	a, b := NewRandomSource(42), NewRandomSource(42)
	for range 10 {
		x, y := a.Float64(), b.Float64()
		if x != y {
			t.Fatalf("same seed produced %v and %v", x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %v outside [0,1)", x)
		}
	}
}
