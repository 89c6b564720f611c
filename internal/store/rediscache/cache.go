package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"ewaste/internal/models"
	"ewaste/internal/store"

	"github.com/redis/go-redis/v9"
)

const summaryKey = "dashboard:summary"

// Store caches the admin dashboard summary in Redis. Every other call passes
// straight through; writes that would change the summary drop the cached copy.
type Store struct {
	store.Store
	rdb *redis.Client
	ttl time.Duration
}

func New(inner store.Store, rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Store{Store: inner, rdb: rdb, ttl: ttl}
}

func (s *Store) DashboardSummary(ctx context.Context) (models.DashboardSummary, error) {
	raw, err := s.rdb.Get(ctx, summaryKey).Bytes()
	if err == nil {
		var summary models.DashboardSummary
		if err := json.Unmarshal(raw, &summary); err == nil {
			return summary, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("summary cache read failed: %v", err)
	}

	summary, err := s.Store.DashboardSummary(ctx)
	if err != nil {
		return models.DashboardSummary{}, err
	}

	if raw, err := json.Marshal(summary); err == nil {
		if err := s.rdb.Set(ctx, summaryKey, raw, s.ttl).Err(); err != nil {
			log.Printf("summary cache write failed: %v", err)
		}
	}
	return summary, nil
}

func (s *Store) invalidate(ctx context.Context) {
	if err := s.rdb.Del(ctx, summaryKey).Err(); err != nil {
		log.Printf("summary cache invalidate failed: %v", err)
	}
}

func (s *Store) CreateRequest(ctx context.Context, input store.CreateRequestInput) (models.Request, error) {
	request, err := s.Store.CreateRequest(ctx, input)
	if err == nil {
		s.invalidate(ctx)
	}
	return request, err
}

func (s *Store) UpdateStatus(ctx context.Context, input store.UpdateStatusInput) (models.Request, error) {
	request, err := s.Store.UpdateStatus(ctx, input)
	if err == nil {
		s.invalidate(ctx)
	}
	return request, err
}

func (s *Store) RegisterUser(ctx context.Context, input store.RegisterUserInput) (models.User, error) {
	user, err := s.Store.RegisterUser(ctx, input)
	if err == nil {
		s.invalidate(ctx)
	}
	return user, err
}

func (s *Store) OnboardPickupPerson(ctx context.Context, input store.OnboardPickupPersonInput) (models.PickupPerson, error) {
	person, err := s.Store.OnboardPickupPerson(ctx, input)
	if err == nil {
		s.invalidate(ctx)
	}
	return person, err
}
