package domain

import (
	"context"

	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// Describer produces AI descriptive metadata for an image record.
type Describer interface {
	Describe(ctx context.Context, rec image.Record) (DescribeResult, error)
}

// HealthChecker verifies describer provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DescribeResult carries generated metadata and token usage through the decorator chain.
// Metadata.ImageID and Metadata.ProcessedAt are filled in by the caller.
type DescribeResult struct {
	Metadata     image.Metadata
	PromptTokens int
	TotalTokens  int
}
