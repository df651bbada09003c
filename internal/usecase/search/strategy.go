package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/search/hit"
	"github.com/kailas-cloud/imgdex/internal/domain/search/request"
	"github.com/kailas-cloud/imgdex/internal/domain/search/strategy"
)

const (
	semanticBase      = 0.5
	semanticDescBoost = 0.4
	semanticTagBoost  = 0.3

	visualBase       = 0.5
	visualSceneBoost = 0.3

	colorBase = 0.7

	textDescMatch = 0.8
	textTagMatch  = 0.6
)

// run dispatches one strategy kind.
func (s *Service) run(ctx context.Context, kind strategy.Kind, req *request.Request) ([]hit.Hit, error) {
	switch kind {
	case strategy.Semantic:
		return s.semantic(ctx, req.Query())
	case strategy.Visual:
		return s.visual(ctx, req.ImageID())
	case strategy.Color:
		return s.color(ctx, req.ColorQuery())
	case strategy.Scene:
		return s.scene(ctx, req.SceneType())
	default:
		return nil, fmt.Errorf("unsupported strategy: %s", kind)
	}
}

// semantic matches the query against AI descriptions and tags,
// falling back to a plain text scan when nothing is annotated.
func (s *Service) semantic(ctx context.Context, query string) ([]hit.Hit, error) {
	annotated, err := s.catalog.SearchMetadataByDescription(ctx, query)
	if err != nil {
		return nil, accessorErr("search metadata by description", err)
	}

	needle := strings.ToLower(query)
	var hits []hit.Hit
	for _, a := range annotated {
		if !a.Record.IsActive() || a.Metadata == nil {
			continue
		}
		conf := semanticBase
		var features []string
		if strings.Contains(strings.ToLower(a.Metadata.AIDescription), needle) {
			conf += semanticDescBoost
			features = append(features, hit.FeatureAIDescription)
		}
		if containsFold(strings.Join(a.Metadata.AITags, ","), needle) {
			conf += semanticTagBoost
			features = append(features, hit.FeatureAITags)
		}
		hits = append(hits, hit.Hit{
			ImageID:         a.Record.ID,
			Confidence:      math.Min(conf+s.jitter(s.cfg.SemanticJitter), 1),
			MatchType:       hit.MatchSemantic,
			MatchedFeatures: features,
			AIDescription:   a.Metadata.AIDescription,
			Strategy:        strategy.Semantic,
		})
	}

	if len(hits) == 0 {
		return s.text(ctx, query)
	}
	return hits, nil
}

// text is the basic substring match over the recent-record sample.
func (s *Service) text(ctx context.Context, query string) ([]hit.Hit, error) {
	records, err := s.catalog.FindRecent(ctx, s.cfg.FallbackSampleSize)
	if err != nil {
		return nil, accessorErr("find recent", err)
	}

	needle := strings.ToLower(query)
	var hits []hit.Hit
	for i := range records {
		r := &records[i]
		if !r.IsActive() {
			continue
		}
		var conf float64
		var features []string
		if containsFold(r.Description, needle) {
			conf += textDescMatch
			features = append(features, hit.FeatureDescription)
		}
		if containsFold(r.Tags, needle) {
			conf += textTagMatch
			features = append(features, hit.FeatureTags)
		}
		if len(features) == 0 {
			continue
		}
		hits = append(hits, hit.Hit{
			ImageID:         r.ID,
			Confidence:      math.Min(conf, 1),
			MatchType:       hit.MatchText,
			MatchedFeatures: features,
			Strategy:        strategy.Semantic,
		})
	}
	return hits, nil
}

// visual finds records sharing the reference image's scene classification.
func (s *Service) visual(ctx context.Context, imageID string) ([]hit.Hit, error) {
	ref, err := s.catalog.FindActiveByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return nil, fmt.Errorf("reference image %q: %w", imageID, err)
		}
		return nil, accessorErr("find reference image", err)
	}

	refMeta, err := s.catalog.FindMetadataByID(ctx, ref.ID)
	if err != nil {
		return nil, accessorErr("find reference metadata", err)
	}
	if refMeta == nil || refMeta.Scene == "" {
		return nil, nil
	}

	candidates, err := s.catalog.FindByScene(ctx, refMeta.Scene)
	if err != nil {
		return nil, accessorErr("find by scene", err)
	}

	var hits []hit.Hit
	for _, c := range candidates {
		if c.Record.ID == ref.ID || !c.Record.IsActive() {
			continue
		}
		conf := visualBase
		var desc string
		if c.Metadata != nil {
			desc = c.Metadata.AIDescription
			if c.Metadata.Scene == refMeta.Scene {
				conf += visualSceneBoost
			}
		}
		hits = append(hits, hit.Hit{
			ImageID:         c.Record.ID,
			Confidence:      math.Min(conf+s.jitter(s.cfg.VisualJitter), 1),
			MatchType:       hit.MatchVisual,
			MatchedFeatures: []string{hit.FeatureScene, hit.FeatureObjects, hit.FeatureColors},
			AIDescription:   desc,
			Strategy:        strategy.Visual,
		})
	}
	return hits, nil
}

// color matches the color query against manual tags of recent records.
func (s *Service) color(ctx context.Context, colorQuery string) ([]hit.Hit, error) {
	records, err := s.catalog.FindRecent(ctx, s.cfg.ColorSampleSize)
	if err != nil {
		return nil, accessorErr("find recent", err)
	}

	needle := strings.ToLower(colorQuery)
	var hits []hit.Hit
	for i := range records {
		r := &records[i]
		if !r.IsActive() || !containsFold(r.Tags, needle) {
			continue
		}
		hits = append(hits, hit.Hit{
			ImageID:         r.ID,
			Confidence:      math.Min(colorBase+s.jitter(s.cfg.ColorJitter), 1),
			MatchType:       hit.MatchColor,
			MatchedFeatures: []string{hit.FeatureTags},
			Strategy:        strategy.Color,
		})
	}
	return hits, nil
}

// scene returns records whose AI scene equals the requested scene type.
func (s *Service) scene(ctx context.Context, sceneType string) ([]hit.Hit, error) {
	candidates, err := s.catalog.FindByScene(ctx, sceneType)
	if err != nil {
		return nil, accessorErr("find by scene", err)
	}

	var hits []hit.Hit
	for _, c := range candidates {
		if !c.Record.IsActive() || c.Metadata == nil || c.Metadata.Scene != sceneType {
			continue
		}
		hits = append(hits, hit.Hit{
			ImageID:         c.Record.ID,
			Confidence:      hit.Clamp01(c.Metadata.Confidence),
			MatchType:       hit.MatchScene,
			MatchedFeatures: []string{hit.FeatureScene},
			AIDescription:   c.Metadata.AIDescription,
			Strategy:        strategy.Scene,
		})
	}
	return hits, nil
}

// jitter scales a draw from the random source by the strategy's bound.
func (s *Service) jitter(bound float64) float64 {
	if bound <= 0 {
		return 0
	}
	return s.rnd.Float64() * bound
}

func accessorErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrAccessorUnavailable, err)
}

// containsFold reports whether lowerNeedle occurs in s, ignoring case.
func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}
