package imgdex

import (
	"context"

	dombatch "github.com/kailas-cloud/imgdex/internal/domain/batch"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/request"
	"github.com/kailas-cloud/imgdex/internal/domain/search/result"
	describeuc "github.com/kailas-cloud/imgdex/internal/usecase/describe"
	healthuc "github.com/kailas-cloud/imgdex/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, req *request.Request) (*result.Response, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) (*result.Response, error) {
	return m.searchFn(ctx, req)
}

// --- describeUseCase mock ---

type mockDescribeUC struct {
	describeFn func(ctx context.Context, id string, force bool) (describeuc.Outcome, error)
}

func (m *mockDescribeUC) Describe(ctx context.Context, id string, force bool) (describeuc.Outcome, error) {
	return m.describeFn(ctx, id, force)
}

// --- batchUseCase mock ---

type mockBatchUC struct {
	importFn func(ctx context.Context, recs []image.Record, mds []image.Metadata) []dombatch.Result
	removeFn func(ctx context.Context, ids []string) []dombatch.Result
}

func (m *mockBatchUC) Import(ctx context.Context, recs []image.Record, mds []image.Metadata) []dombatch.Result {
	return m.importFn(ctx, recs, mds)
}

func (m *mockBatchUC) Remove(ctx context.Context, ids []string) []dombatch.Result {
	return m.removeFn(ctx, ids)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report {
	return m.report
}

func imageRecordFixture() image.Record {
	return image.Record{
		ID:     "cat-1",
		URL:    "https://cdn.example.com/cat-1.jpg",
		Tags:   "cat; sofa",
		Status: image.StatusActive,
	}
}
