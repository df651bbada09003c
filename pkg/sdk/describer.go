package imgdex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// Describer generates descriptive metadata for an image.
// Implement this to plug in any vision model.
type Describer interface {
	Describe(ctx context.Context, img Image) (Description, error)
}

// Description is a Describer reply. Token counts are optional.
type Description struct {
	Metadata     Metadata
	PromptTokens int
	TotalTokens  int
}

// describerAdapter wraps public Describer to satisfy internal domain.Describer.
type describerAdapter struct {
	inner Describer
}

func (a *describerAdapter) Describe(ctx context.Context, rec image.Record) (domain.DescribeResult, error) {
	d, err := a.inner.Describe(ctx, imageFromRecord(&rec, nil))
	if err != nil {
		return domain.DescribeResult{}, fmt.Errorf("describe: %w", err)
	}
	return domain.DescribeResult{
		Metadata:     metadataToDomain(rec.ID, &d.Metadata),
		PromptTokens: d.PromptTokens,
		TotalTokens:  d.TotalTokens,
	}, nil
}

// HealthCheck forwards to the wrapped describer when it implements
// HealthCheck(ctx) error.
func (a *describerAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(interface{ HealthCheck(context.Context) error }); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("describer health: %w", err)
		}
	}
	return nil
}
