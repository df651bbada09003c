package imgdex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/search/filter"
	"github.com/kailas-cloud/imgdex/internal/domain/search/request"
	"github.com/kailas-cloud/imgdex/internal/domain/search/strategy"
)

// Search runs every strategy the query enables and returns ranked results.
// It fails only when the query is invalid or every strategy failed.
func (c *Client) Search(ctx context.Context, q Query) (resp *Response, err error) {
	start := time.Now()
	defer func() { c.obs.observeSearch("search", start, resp, err) }()

	req, err := queryToRequest(&q)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, &req)
}

// Similar finds images visually similar to a reference image.
// limit <= 0 uses the default page size.
func (c *Client) Similar(ctx context.Context, imageID string, limit int) (resp *Response, err error) {
	start := time.Now()
	defer func() { c.obs.observeSearch("similar", start, resp, err) }()

	var lp *int
	if limit > 0 {
		lp = &limit
	}
	req, err := request.NewSimilar(imageID, lp, nil)
	if err != nil {
		return nil, fmt.Errorf("similar: %w", err)
	}
	return c.run(ctx, &req)
}

func (c *Client) run(ctx context.Context, req *request.Request) (*Response, error) {
	r, err := c.searchSvc.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return responseFromDomain(r), nil
}

func queryToRequest(q *Query) (request.Request, error) {
	filters, err := filter.New(q.Filters)
	if err != nil {
		return request.Request{}, err
	}

	var kinds strategy.Set
	if len(q.Strategies) == 0 {
		kinds = strategy.Infer(
			strings.TrimSpace(q.Text), strings.TrimSpace(q.ImageID),
			strings.TrimSpace(q.Color), strings.TrimSpace(q.Scene),
		)
	} else {
		list := make([]strategy.Kind, 0, len(q.Strategies))
		for _, s := range q.Strategies {
			k := strategy.Kind(strings.ToLower(strings.TrimSpace(s)))
			if !k.IsValid() {
				return request.Request{}, fmt.Errorf("unknown strategy %q: %w", s, domain.ErrInvalidQuery)
			}
			list = append(list, k)
		}
		kinds = strategy.NewSet(list...)
	}

	var limit *int
	if q.Limit != 0 {
		limit = &q.Limit
	}

	req, err := request.New(request.Params{
		Query:         q.Text,
		ImageID:       q.ImageID,
		ColorQuery:    q.Color,
		SceneType:     q.Scene,
		Filters:       filters,
		Limit:         limit,
		MinConfidence: q.MinConfidence,
		Strategies:    kinds,
	})
	if err != nil {
		return request.Request{}, fmt.Errorf("search query: %w", err)
	}
	return req, nil
}
