// Package redis provides Redis-backed session persistence.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tailorbase/storesmith/pkg/models"
	"github.com/tailorbase/storesmith/pkg/sessions"
)

const keyPrefix = "storesmith:session:"

// Store implements sessions.Store on Redis, one key per shop.
type Store struct {
	client *goredis.Client
}

// NewStore connects to Redis using a redis:// URL.
func NewStore(ctx context.Context, redisURL string) (*Store, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) StoreSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session for %s: %w", session.Shop, err)
	}

	if err := s.client.Set(ctx, keyPrefix+session.Shop, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store session for %s: %w", session.Shop, err)
	}

	return nil
}

func (s *Store) GetSession(ctx context.Context, shop string) (*models.Session, error) {
	data, err := s.client.Get(ctx, keyPrefix+shop).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("shop %s: %w", shop, sessions.ErrSessionNotFound)
		}

		return nil, fmt.Errorf("failed to read session for %s: %w", shop, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session for %s: %w", shop, err)
	}

	return &session, nil
}

func (s *Store) DeleteSession(ctx context.Context, shop string) error {
	if err := s.client.Del(ctx, keyPrefix+shop).Err(); err != nil {
		return fmt.Errorf("failed to delete session for %s: %w", shop, err)
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}
