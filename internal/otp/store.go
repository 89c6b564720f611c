package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotIssued = errors.New("otp: no code issued for request")
	ErrMismatch  = errors.New("otp: code mismatch")
	ErrLockedOut = errors.New("otp: too many failed attempts")
)

// Store keeps issued codes in Redis keyed by request, with a TTL and a
// failed-attempt counter. After MaxAttempts mismatches the code is discarded
// and verification must be re-initiated.
type Store struct {
	rdb         *redis.Client
	ttl         time.Duration
	maxAttempts int
}

type Options struct {
	TTL         time.Duration
	MaxAttempts int
}

func NewStore(rdb *redis.Client, opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Store{rdb: rdb, ttl: ttl, maxAttempts: maxAttempts}
}

func codeKey(requestID string) string {
	return "otp:code:" + requestID
}

func attemptsKey(requestID string) string {
	return "otp:attempts:" + requestID
}

// Issue stores a fresh code for the request, replacing any previous one and
// resetting the attempt counter.
func (s *Store) Issue(ctx context.Context, requestID, code string) error {
	if err := s.rdb.Set(ctx, codeKey(requestID), code, s.ttl).Err(); err != nil {
		return err
	}
	return s.rdb.Del(ctx, attemptsKey(requestID)).Err()
}

// Verify checks a submitted code. A match consumes the code; a mismatch
// increments the attempt counter and, at the limit, discards the code.
func (s *Store) Verify(ctx context.Context, requestID, code string) error {
	stored, err := s.rdb.Get(ctx, codeKey(requestID)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotIssued
	}
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		attempts, err := s.rdb.Incr(ctx, attemptsKey(requestID)).Result()
		if err != nil {
			return err
		}
		if err := s.rdb.Expire(ctx, attemptsKey(requestID), s.ttl).Err(); err != nil {
			return err
		}
		if attempts >= int64(s.maxAttempts) {
			_ = s.rdb.Del(ctx, codeKey(requestID), attemptsKey(requestID)).Err()
			return ErrLockedOut
		}
		return ErrMismatch
	}

	return s.rdb.Del(ctx, codeKey(requestID), attemptsKey(requestID)).Err()
}
