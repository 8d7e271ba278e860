package redis

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
)

// rateKey holds the UZS-per-USD exchange rate as a plain string.
const rateKey = "exchange:usd_uzs"

// RateStore implements ports.RateSource on Redis. The rate survives
// gateway restarts and is shared between replicas; when nothing has been
// stored yet the configured default applies.
type RateStore struct {
	client      *goredis.Client
	defaultRate float64
}

// NewRateStore creates the store. defaultRate is returned while no rate
// has been set.
func NewRateStore(client *goredis.Client, defaultRate float64) *RateStore {
	return &RateStore{client: client, defaultRate: defaultRate}
}

// Current returns the stored rate, or the default when the key is unset.
func (s *RateStore) Current(ctx context.Context) (float64, error) {
	val, err := s.client.Get(ctx, rateKey).Result()
	if err != nil {
		if err == goredis.Nil {
			return s.defaultRate, nil
		}
		return 0, fmt.Errorf("redis rate get: %w", err)
	}

	rate, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("parse stored rate %q: %w", val, err)
	}
	return rate, nil
}

// Set stores a new rate with no expiry.
func (s *RateStore) Set(ctx context.Context, rate float64) error {
	val := strconv.FormatFloat(rate, 'f', -1, 64)
	if err := s.client.Set(ctx, rateKey, val, 0).Err(); err != nil {
		return fmt.Errorf("redis rate set: %w", err)
	}
	return nil
}
