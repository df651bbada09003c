package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/search/strategy"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestNew_Defaults(t *testing.T) {
	r, err := New(Params{Query: " sunset ", Strategies: strategy.NewSet(strategy.Semantic)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "sunset" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if r.MinConfidence() != DefaultMinConfidence {
		t.Errorf("MinConfidence() = %f, want %f", r.MinConfidence(), DefaultMinConfidence)
	}
	if !r.Strategies().Has(strategy.Semantic) {
		t.Error("expected semantic strategy")
	}
	if !r.Filters().IsEmpty() {
		t.Error("expected empty filters")
	}
}

func TestNew_ExplicitValues(t *testing.T) {
	r, err := New(Params{
		Query:         "beach",
		ImageID:       "img-1",
		ColorQuery:    "blue",
		SceneType:     "landscape",
		Limit:         intPtr(25),
		MinConfidence: floatPtr(0),
		Strategies:    strategy.NewSet(strategy.All...),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != 25 {
		t.Errorf("Limit() = %d", r.Limit())
	}
	if r.MinConfidence() != 0 {
		t.Errorf("MinConfidence() = %f", r.MinConfidence())
	}
	if r.ImageID() != "img-1" || r.ColorQuery() != "blue" || r.SceneType() != "landscape" {
		t.Errorf("unexpected inputs: %q %q %q", r.ImageID(), r.ColorQuery(), r.SceneType())
	}
	if r.Strategies().Len() != 4 {
		t.Errorf("Strategies().Len() = %d", r.Strategies().Len())
	}
}

func TestNew_LimitClamped(t *testing.T) {
	r, err := New(Params{Query: "q", Limit: intPtr(MaxLimit * 3), Strategies: strategy.NewSet(strategy.Semantic)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != MaxLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), MaxLimit)
	}
}

func TestNew_Invalid(t *testing.T) {
	semantic := strategy.NewSet(strategy.Semantic)
	tests := []struct {
		name string
		p    Params
		want string
	}{
		{"zero limit", Params{Query: "q", Limit: intPtr(0), Strategies: semantic}, "limit"},
		{"negative limit", Params{Query: "q", Limit: intPtr(-3), Strategies: semantic}, "limit"},
		{"confidence above one", Params{Query: "q", MinConfidence: floatPtr(1.5), Strategies: semantic}, "min confidence"},
		{"negative confidence", Params{Query: "q", MinConfidence: floatPtr(-0.1), Strategies: semantic}, "min confidence"},
		{"no strategies", Params{Query: "q"}, "no search signal"},
		{"visual without image", Params{Query: "q", Strategies: strategy.NewSet(strategy.Visual)}, "visual search requested"},
		{"semantic blank query", Params{Query: "   ", Strategies: semantic}, "semantic search requested"},
		{"query too long", Params{Query: strings.Repeat("x", MaxQueryLength+1), Strategies: semantic}, "too long"},
		{"image id too long", Params{ImageID: strings.Repeat("i", domain.MaxIDLength+1), Strategies: strategy.NewSet(strategy.Visual)}, "too long"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.p)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Errorf("expected ErrInvalidQuery, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want substring %q", err, tc.want)
			}
		})
	}
}

func TestNew_QueryAtMaxLength(t *testing.T) {
	_, err := New(Params{Query: strings.Repeat("x", MaxQueryLength), Strategies: strategy.NewSet(strategy.Semantic)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewSimilar(t *testing.T) {
	r, err := NewSimilar("img-9", intPtr(3), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ImageID() != "img-9" || r.Limit() != 3 {
		t.Errorf("unexpected request: %q %d", r.ImageID(), r.Limit())
	}
	kinds := r.Strategies().Kinds()
	if len(kinds) != 1 || kinds[0] != strategy.Visual {
		t.Errorf("Strategies() = %v, want [visual]", kinds)
	}
}

func TestNewSimilar_MissingImage(t *testing.T) {
	if _, err := NewSimilar("", nil, nil); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}
