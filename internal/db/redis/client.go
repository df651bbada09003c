package redis

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/imgdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const (
	defaultClientName   = "imgdex"
	defaultDialTimeout  = 5 * time.Second
	defaultWriteTimeout = 10 * time.Second

	readyBackoffStart = 50 * time.Millisecond
	readyBackoffMax   = 2 * time.Second
)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs        []string
	Username     string
	Password     string
	DB           int
	ClientName   string        // CLIENT SETNAME, default "imgdex"
	DialTimeout  time.Duration // default 5s
	WriteTimeout time.Duration // default 10s
	// Observer, when set, is called after every command.
	Observer db.CommandObserver
}

// Store implements db.Store via rueidis for Redis 8+ or Valkey with the search module.
type Store struct {
	client   rueidis.Client
	observer db.CommandObserver
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	name := cfg.ClientName
	if name == "" {
		name = defaultClientName
	}
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}
	write := cfg.WriteTimeout
	if write <= 0 {
		write = defaultWriteTimeout
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:      cfg.Addrs,
		Username:         cfg.Username,
		Password:         cfg.Password,
		SelectDB:         cfg.DB,
		ClientName:       name,
		Dialer:           net.Dialer{Timeout: dial},
		ConnWriteTimeout: write,
		DisableCache:     true,
		AlwaysRESP2:      true, // FT.SEARCH parsing expects the RESP2 flat array
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, observer: cfg.Observer}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.b().Ping().Build()
	if err := s.do(ctx, db.OpPing, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings with exponential backoff until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := readyBackoffStart
	var lastErr error
	for {
		if lastErr = s.Ping(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w (last error: %w)", ctx.Err(), lastErr)
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, readyBackoffMax)
	}
}

func (s *Store) do(ctx context.Context, op string, cmd rueidis.Completed) rueidis.RedisResult {
	start := time.Now()
	res := s.client.Do(ctx, cmd)
	s.observe(op, start, res.Error())
	return res
}

func (s *Store) doMulti(ctx context.Context, op string, cmds []rueidis.Completed) []rueidis.RedisResult {
	start := time.Now()
	results := s.client.DoMulti(ctx, cmds...)
	var firstErr error
	for _, r := range results {
		if err := r.Error(); err != nil && !rueidis.IsRedisNil(err) {
			firstErr = err
			break
		}
	}
	s.observe(op, start, firstErr)
	return results
}

func (s *Store) observe(op string, start time.Time, err error) {
	if s.observer == nil {
		return
	}
	if rueidis.IsRedisNil(err) {
		err = nil
	}
	s.observer(op, time.Since(start), err)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
