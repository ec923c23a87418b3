package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/vedran77/circle/internal/domain"
)

const otpKeyPrefix = "otp:registration:"

type OTPStore struct {
	client *redis.Client
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

// Save stores the pending registration. A zero ttl keeps the key's current expiry.
func (s *OTPStore) Save(ctx context.Context, reg *domain.PendingRegistration, ttl time.Duration) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = redis.KeepTTL
	}
	return s.client.Set(ctx, otpKey(reg.Email), data, ttl).Err()
}

func (s *OTPStore) Get(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	data, err := s.client.Get(ctx, otpKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var reg domain.PendingRegistration
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *OTPStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, otpKey(email)).Err()
}

func otpKey(email string) string {
	return otpKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}
