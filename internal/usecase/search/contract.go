package search

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// Catalog is the read-only record source the strategies query.
// Implementations must return copies; the engine never mutates them.
type Catalog interface {
	// FindActiveByID returns domain.ErrImageNotFound for missing, disabled or deleted records.
	FindActiveByID(ctx context.Context, id string) (image.Record, error)
	FindByScene(ctx context.Context, scene string) ([]image.Annotated, error)
	FindRecent(ctx context.Context, limit int) ([]image.Record, error)
	// FindMetadataByID returns nil, nil when the record has no metadata yet.
	FindMetadataByID(ctx context.Context, id string) (*image.Metadata, error)
	SearchMetadataByDescription(ctx context.Context, keyword string) ([]image.Annotated, error)
}

// RandomSource yields strategy jitter in [0, 1).
type RandomSource interface {
	Float64() float64
}

// lockedSource serializes access to a single generator shared by strategy goroutines.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a goroutine-safe source. Seed 0 picks a random seed.
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
