package db

import (
	"errors"
	"fmt"
)

// ErrInvalidSearch wraps query validation failures raised before FT.SEARCH.
var ErrInvalidSearch = errors.New("db: invalid search query")

// TagMatch restricts a query to documents whose TAG field equals Value.
type TagMatch struct {
	Field string
	Value string
}

// SortOrder orders hits by a SORTABLE field instead of relevance.
type SortOrder struct {
	Field      string
	Descending bool
}

// Query is the input for FT.SEARCH. Text is matched against TextFields
// (all TEXT fields when empty); Tags are ANDed with it. An empty Text and
// no Tags matches every document.
type Query struct {
	IndexName    string
	Text         string
	TextFields   []string
	Tags         []TagMatch
	SortBy       *SortOrder
	Offset       int
	Limit        int
	ReturnFields []string
}

// Validate rejects queries the server would refuse or misread.
func (q *Query) Validate() error {
	switch {
	case q.IndexName == "":
		return fmt.Errorf("%w: index name is required", ErrInvalidSearch)
	case q.Limit <= 0:
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidSearch, q.Limit)
	case q.Offset < 0:
		return fmt.Errorf("%w: offset must not be negative, got %d", ErrInvalidSearch, q.Offset)
	case q.SortBy != nil && q.SortBy.Field == "":
		return fmt.Errorf("%w: sort field is required", ErrInvalidSearch)
	}
	for _, t := range q.Tags {
		if t.Field == "" {
			return fmt.Errorf("%w: tag field is required", ErrInvalidSearch)
		}
	}
	return nil
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
