package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/shopcanvas/backend/pkg/errors"
	redispkg "github.com/shopcanvas/backend/pkg/redis"
)

// SessionStore persists a session's cart across navigations. Load on a session
// with no cart returns an empty cart, never an error.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, cart *Cart) error
	Clear(ctx context.Context, sessionID string) error
}

type kvClient interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type redisSessionStore struct {
	kv  kvClient
	ttl time.Duration
}

// NewRedisSessionStore builds the Redis-backed cart store. Every save renews
// the TTL so an active session never loses its cart mid-browse.
func NewRedisSessionStore(kv kvClient, ttl time.Duration) (SessionStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &redisSessionStore{kv: kv, ttl: ttl}, nil
}

func (s *redisSessionStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	raw, err := s.kv.Get(ctx, redispkg.CartKey(sessionID))
	if err != nil {
		if err == redispkg.Nil {
			return &Cart{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		// A corrupt blob should not brick the session; start fresh.
		return &Cart{}, nil
	}
	return &cart, nil
}

func (s *redisSessionStore) Save(ctx context.Context, sessionID string, cart *Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.kv.Set(ctx, redispkg.CartKey(sessionID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func (s *redisSessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.kv.Del(ctx, redispkg.CartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
