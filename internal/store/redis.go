package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Skufu/glucocheck/internal/assessment"
)

const redisPrefix = "glucocheck"

// RedisStore keeps session-scoped history as a capped list per owner.
type RedisStore struct {
	client   *redis.Client
	capacity int
	ttl      time.Duration
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// TTL expires an owner's keys after inactivity; zero keeps them forever.
	TTL time.Duration
}

func NewRedis(opts RedisOptions, capacityN int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisStore{client: client, capacity: capacity(capacityN), ttl: opts.TTL}
}

func historyKey(owner string) string {
	return fmt.Sprintf("%s:%s:%s", redisPrefix, owner, HistoryKey)
}

func prefsKey(owner string) string {
	return fmt.Sprintf("%s:%s:prefs", redisPrefix, owner)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) List(ctx context.Context, owner string) ([]assessment.Record, error) {
	items, err := s.client.LRange(ctx, historyKey(owner), 0, int64(s.capacity-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return decodeItems(items)
}

// Append pushes to the head and trims the tail in one MULTI/EXEC block.
func (s *RedisStore) Append(ctx context.Context, owner string, rec assessment.Record) ([]assessment.Record, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	key := historyKey(owner)
	var rangeCmd *redis.StringSliceCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, int64(s.capacity-1))
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		rangeCmd = pipe.LRange(ctx, key, 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	return decodeItems(rangeCmd.Val())
}

func (s *RedisStore) Clear(ctx context.Context, owner string) error {
	if err := s.client.Del(ctx, historyKey(owner)).Err(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *RedisStore) GetPreference(ctx context.Context, owner, key string) (string, error) {
	v, err := s.client.HGet(ctx, prefsKey(owner), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read preference %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) SetPreference(ctx context.Context, owner, key, value string) error {
	if err := s.client.HSet(ctx, prefsKey(owner), key, value).Err(); err != nil {
		return fmt.Errorf("write preference %s: %w", key, err)
	}
	return nil
}

func decodeItems(items []string) ([]assessment.Record, error) {
	out := make([]assessment.Record, 0, len(items))
	for _, item := range items {
		var rec assessment.Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
