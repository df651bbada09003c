package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/imgdex/internal/db"
)

// Get retrieves a value by key; a missing key is db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, db.OpGet, s.b().Get().Key(key).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Key: key, Err: err}
	}
	return data, nil
}

// SetWithTTL stores a value that expires after ttl, with millisecond precision.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ms := ttl.Milliseconds()
	if ms <= 0 {
		return &db.Error{Op: db.OpSet, Key: key, Err: fmt.Errorf("ttl %v is below 1ms", ttl)}
	}
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).PxMilliseconds(ms).Build()
	if err := s.do(ctx, db.OpSet, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Key: key, Err: err}
	}
	return nil
}

// IncrBy atomically increments a key by the given amount.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	cmd := s.b().Incrby().Key(key).Increment(val).Build()
	if err := s.do(ctx, db.OpIncrBy, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpIncrBy, Key: key, Err: err}
	}
	return nil
}

// Expire sets a TTL on a key, with millisecond precision. With nx, keys
// that already expire are left alone.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	ms := ttl.Milliseconds()
	if ms <= 0 {
		return &db.Error{Op: db.OpExpire, Key: key, Err: fmt.Errorf("ttl %v is below 1ms", ttl)}
	}
	var cmd rueidis.Completed
	if nx {
		cmd = s.b().Pexpire().Key(key).Milliseconds(ms).Nx().Build()
	} else {
		cmd = s.b().Pexpire().Key(key).Milliseconds(ms).Build()
	}
	if err := s.do(ctx, db.OpExpire, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpExpire, Key: key, Err: err}
	}
	return nil
}
