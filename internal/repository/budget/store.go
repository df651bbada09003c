// Package budget persists describer token counters in the key-value store.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/imgdex/internal/db"
	"github.com/kailas-cloud/imgdex/internal/domain"
)

// Default counter lifetimes. Each outlives its period so a restart near
// midnight or month end still finds the running total.
const (
	DefaultDailyTTL   = 48 * time.Hour
	DefaultMonthlyTTL = 62 * 24 * time.Hour
)

// store is the consumer interface for budget operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// period is one counter bucket: a key layout and how long it lives.
type period struct {
	name   string
	layout string
	ttl    time.Duration
}

func (p period) key(provider string, at time.Time) string {
	return fmt.Sprintf("%sbudget:%s:%s:%s", domain.KeyPrefix, provider, p.name, at.UTC().Format(p.layout))
}

// Store implements describe.BudgetStore with one INCRBY counter per
// provider per UTC day and month.
type Store struct {
	store   store
	daily   period
	monthly period
}

// New creates a budget store. Non-positive TTLs fall back to the defaults.
func New(s store, dailyTTL, monthTTL time.Duration) *Store {
	if dailyTTL <= 0 {
		dailyTTL = DefaultDailyTTL
	}
	if monthTTL <= 0 {
		monthTTL = DefaultMonthlyTTL
	}
	return &Store{
		store:   s,
		daily:   period{name: "daily", layout: "2006-01-02", ttl: dailyTTL},
		monthly: period{name: "monthly", layout: "2006-01", ttl: monthTTL},
	}
}

// Add increments the day and month counters containing at.
// The month counter is skipped when the day write fails.
func (s *Store) Add(ctx context.Context, provider string, at time.Time, tokens int64) error {
	for _, p := range []period{s.daily, s.monthly} {
		if err := s.incr(ctx, p.key(provider, at), tokens, p.ttl); err != nil {
			return err
		}
	}
	return nil
}

// Usage returns the day and month totals containing at. Missing counters read as 0.
func (s *Store) Usage(ctx context.Context, provider string, at time.Time) (daily, monthly int64, err error) {
	if daily, err = s.get(ctx, s.daily.key(provider, at)); err != nil {
		return 0, 0, err
	}
	if monthly, err = s.get(ctx, s.monthly.key(provider, at)); err != nil {
		return 0, 0, err
	}
	return daily, monthly, nil
}

func (s *Store) incr(ctx context.Context, key string, val int64, ttl time.Duration) error {
	if err := s.store.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("budget INCRBY %s: %w", key, err)
	}
	// NX: the first increment of a period fixes the expiry.
	if err := s.store.Expire(ctx, key, ttl, true); err != nil {
		return fmt.Errorf("budget EXPIRE %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("budget GET %s: %w", key, err)
	}
	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget GET %s parse: %w", key, err)
	}
	return val, nil
}
