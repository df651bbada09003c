package redis

import (
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/imgdex/internal/db"
)

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
// observer may be nil.
func NewStoreForTest(c rueidis.Client, observer ...db.CommandObserver) *Store {
	s := &Store{client: c}
	if len(observer) > 0 {
		s.observer = observer[0]
	}
	return s
}
