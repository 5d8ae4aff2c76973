package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/park-ledger/internal/model"
)

// RedisLedger keeps the shared ledger in Redis.  Each document is one JSON
// string value; SET replaces it wholesale, so the last writer wins.
type RedisLedger struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisLedger returns a ledger namespaced under prefix.
func NewRedisLedger(rdb *redis.Client, prefix string) *RedisLedger {
	if prefix == "" {
		prefix = "ledger"
	}
	return &RedisLedger{rdb: rdb, prefix: prefix}
}

// SettingsKey is the key holding the settings document.
func (l *RedisLedger) SettingsKey() string { return l.prefix + ":settings" }

// BookingsKey is the key holding the booking list of one partition.
func (l *RedisLedger) BookingsKey(syncID string) string { return l.prefix + ":bookings:" + syncID }

func (l *RedisLedger) FetchSettings(ctx context.Context) (model.Settings, error) {
	raw, err := l.get(ctx, l.SettingsKey())
	if err != nil {
		return model.Settings{}, err
	}
	s, err := model.DecodeSettings(raw)
	if err != nil {
		return model.Settings{}, fmt.Errorf("decode remote settings: %w", err)
	}
	return s, nil
}

func (l *RedisLedger) StoreSettings(ctx context.Context, s model.Settings) error {
	return l.set(ctx, l.SettingsKey(), s)
}

func (l *RedisLedger) FetchBookings(ctx context.Context, syncID string) ([]model.Booking, error) {
	raw, err := l.get(ctx, l.BookingsKey(syncID))
	if err != nil {
		return nil, err
	}
	var list []model.Booking
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode remote bookings: %w", err)
	}
	if list == nil {
		return nil, ErrNotFound
	}
	return list, nil
}

func (l *RedisLedger) StoreBookings(ctx context.Context, syncID string, list []model.Booking) error {
	if list == nil {
		list = []model.Booking{}
	}
	return l.set(ctx, l.BookingsKey(syncID), list)
}

func (l *RedisLedger) get(ctx context.Context, key string) ([]byte, error) {
	raw, err := l.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

func (l *RedisLedger) set(ctx context.Context, key string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := l.rdb.Set(ctx, key, doc, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
