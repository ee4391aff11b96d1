package token

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisStore keeps the session in redis so several portal processes on the
// same workstation (kiosk mode) share one signed-in session.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store on client. Keys are namespaced by tenantID
// so two clinics on one redis instance never see each other's session.
func NewRedisStore(client *redis.Client, tenantID string) *RedisStore {
	return &RedisStore{client: client, prefix: "portal:session:" + tenantID + ":"}
}

func (s *RedisStore) SaveTokens(access, refresh string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	// MSet keeps the pair atomic.
	if err := s.client.MSet(ctx,
		s.prefix+keyAccessToken, access,
		s.prefix+keyRefreshToken, refresh,
	).Err(); err != nil {
		return fmt.Errorf("token: save tokens: %w", err)
	}
	return nil
}

func (s *RedisStore) UpdateAccessToken(access string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	refresh, err := s.client.Get(ctx, s.prefix+keyRefreshToken).Result()
	if err == redis.Nil || (err == nil && refresh == "") {
		return ErrNoRefreshToken
	}
	if err != nil {
		return fmt.Errorf("token: read refresh token: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+keyAccessToken, access, 0).Err(); err != nil {
		return fmt.Errorf("token: update access token: %w", err)
	}
	return nil
}

func (s *RedisStore) ReadTokens() (Tokens, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	values, err := s.client.MGet(ctx, s.prefix+keyAccessToken, s.prefix+keyRefreshToken).Result()
	if err != nil || len(values) != 2 {
		return Tokens{}, false
	}
	access, _ := values[0].(string)
	refresh, _ := values[1].(string)
	if access == "" || refresh == "" {
		return Tokens{}, false
	}
	return Tokens{Access: access, Refresh: refresh}, true
}

func (s *RedisStore) SaveProfile(profile []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.prefix+keyUserProfile, profile, 0).Err(); err != nil {
		return fmt.Errorf("token: save profile: %w", err)
	}
	return nil
}

func (s *RedisStore) ReadProfile() ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	data, err := s.client.Get(ctx, s.prefix+keyUserProfile).Bytes()
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (s *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Del(ctx,
		s.prefix+keyAccessToken,
		s.prefix+keyRefreshToken,
		s.prefix+keyUserProfile,
	).Err(); err != nil {
		return fmt.Errorf("token: clear session: %w", err)
	}
	return nil
}
