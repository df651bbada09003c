package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/hit"
	"github.com/kailas-cloud/imgdex/internal/domain/search/request"
	"github.com/kailas-cloud/imgdex/internal/domain/search/result"
	"github.com/kailas-cloud/imgdex/internal/domain/search/strategy"
	"github.com/kailas-cloud/imgdex/internal/metrics"
)

// resolveConcurrency bounds parallel record lookups after merge.
const resolveConcurrency = 16

// Service runs the requested strategies, merges their hits and ranks the result.
type Service struct {
	catalog Catalog
	rnd     RandomSource
	cfg     Config
	scorer  *Scorer
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a search service.
func New(catalog Catalog, rnd RandomSource, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog: catalog,
		rnd:     rnd,
		cfg:     cfg,
		scorer:  NewScorer(cfg.Weights, cfg.StaleAfter),
		logger:  logger,
		now:     time.Now,
	}
}

type outcome struct {
	kind strategy.Kind
	hits []hit.Hit
	err  error
}

type candidate struct {
	hit    hit.Hit
	record image.Record
	meta   *image.Metadata
}

// Search executes every strategy the request opted into and returns the ranked response.
// It fails only when all strategies fail, a resolved record cannot be read, or ctx ends.
func (s *Service) Search(ctx context.Context, req *request.Request) (*result.Response, error) {
	start := time.Now()
	kinds := req.Strategies().Kinds()

	outcomes := make([]outcome, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			t := time.Now()
			hits, err := s.run(gctx, kind, req)
			metrics.StrategyDuration.WithLabelValues(string(kind)).Observe(time.Since(t).Seconds())
			outcomes[i] = outcome{kind: kind, hits: hits, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var failures []domain.StrategyFailure
	batches := make([][]hit.Hit, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			metrics.StrategyErrorsTotal.WithLabelValues(string(o.kind)).Inc()
			s.logger.Warn("Search strategy failed",
				zap.String("strategy", string(o.kind)),
				zap.Error(o.err),
			)
			failures = append(failures, domain.StrategyFailure{Strategy: string(o.kind), Err: o.err})
			continue
		}
		metrics.StrategyHitsTotal.WithLabelValues(string(o.kind)).Add(float64(len(o.hits)))
		batches = append(batches, o.hits)
	}
	if len(kinds) > 0 && len(failures) == len(kinds) {
		return nil, domain.NewSearchError(failures)
	}

	merged := merge(batches, req.MinConfidence(), req.Limit())

	candidates, err := s.resolve(ctx, merged)
	if err != nil {
		return nil, err
	}

	now := s.now()
	scored := make([]result.Scored, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, s.scorer.Score(req, c.hit, c.record, c.meta, now))
	}

	resp := enrich(req.Query(), scored, s.cfg.Thresholds)
	resp.Strategies = kinds
	resp.Failures = failures
	resp.Took = time.Since(start)

	metrics.SearchRequestsTotal.WithLabelValues(string(resp.Quality)).Inc()
	metrics.SearchDuration.Observe(resp.Took.Seconds())

	s.logger.Debug("search_complete",
		zap.Int("strategies", len(kinds)),
		zap.Int("failed_strategies", len(failures)),
		zap.Int("candidates", len(merged)),
		zap.Int("results", resp.TotalResults()),
		zap.String("quality", string(resp.Quality)),
		zap.Duration("took", resp.Took),
	)

	return &resp, nil
}

// resolve loads the record and metadata behind each merged hit. Records that
// vanished or became inactive since the strategy ran are dropped.
func (s *Service) resolve(ctx context.Context, hits []hit.Hit) ([]candidate, error) {
	slots := make([]*candidate, len(hits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, h := range hits {
		g.Go(func() error {
			rec, err := s.catalog.FindActiveByID(gctx, h.ImageID)
			if err != nil {
				if errors.Is(err, domain.ErrImageNotFound) {
					s.logger.Debug("Dropping vanished candidate", zap.String("image_id", h.ImageID))
					return nil
				}
				return accessorErr("resolve record", err)
			}
			if !rec.IsActive() {
				return nil
			}
			meta, err := s.catalog.FindMetadataByID(gctx, h.ImageID)
			if err != nil {
				return accessorErr("resolve metadata", err)
			}
			slots[i] = &candidate{hit: h, record: rec, meta: meta}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("search: %w", ctxErr)
		}
		return nil, err
	}

	out := make([]candidate, 0, len(hits))
	for _, c := range slots {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}
