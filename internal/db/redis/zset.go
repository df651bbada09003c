package redis

import (
	"context"
	"strconv"

	"github.com/kailas-cloud/imgdex/internal/db"
)

// ZAdd adds or updates a member's score.
func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	cmd := s.b().Zadd().Key(key).ScoreMember().ScoreMember(score, member).Build()
	if err := s.do(ctx, db.OpZAdd, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Key: key, Err: err}
	}
	return nil
}

// ZRevRange returns up to limit members ordered by score, highest first.
func (s *Store) ZRevRange(ctx context.Context, key string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	cmd := s.b().Zrange().Key(key).Min("0").Max(strconv.Itoa(limit - 1)).Rev().Build()
	members, err := s.do(ctx, db.OpZRange, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Key: key, Err: err}
	}
	return members, nil
}

// ZRem removes a member.
func (s *Store) ZRem(ctx context.Context, key, member string) error {
	cmd := s.b().Zrem().Key(key).Member(member).Build()
	if err := s.do(ctx, db.OpZRem, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZRem, Key: key, Err: err}
	}
	return nil
}
