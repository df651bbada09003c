package describe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	domusage "github.com/kailas-cloud/imgdex/internal/domain/usage"
	"github.com/kailas-cloud/imgdex/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	Snapshot(period domusage.Period) domusage.Budget
}

// InstrumentedDescriber wraps a Describer with budget enforcement and logging.
// Provider request metrics are recorded by the transport implementation.
type InstrumentedDescriber struct {
	inner    domain.Describer
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedDescriber wraps a describer. budget may be nil.
func NewInstrumentedDescriber(
	inner domain.Describer, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedDescriber {
	return &InstrumentedDescriber{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// Describe checks the budget, delegates, and records token usage.
func (p *InstrumentedDescriber) Describe(ctx context.Context, rec image.Record) (domain.DescribeResult, error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Error("Describer budget exceeded",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Error(err),
			)
			return domain.DescribeResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	result, err := p.inner.Describe(ctx, rec)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Describe request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.String("image_id", rec.ID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.DescribeResult{}, fmt.Errorf("describe: %w", err)
	}

	if p.budget != nil && result.TotalTokens > 0 {
		p.budget.Record(int64(result.TotalTokens))
		remaining := metrics.DescriberBudgetTokensRemaining
		remaining.WithLabelValues(p.provider, "daily").Set(float64(p.budget.Snapshot(domusage.PeriodDay).Remaining))
		remaining.WithLabelValues(p.provider, "monthly").Set(float64(p.budget.Snapshot(domusage.PeriodMonth).Remaining))
	}

	p.logger.Debug("Describe request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.String("image_id", rec.ID),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// HealthCheck forwards to the inner describer when it supports health checks.
func (p *InstrumentedDescriber) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
