// Package redis persists per-model usage counters in Redis hashes.
package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

const (
	fieldRequests         = "requests"
	fieldFailures         = "failures"
	fieldPromptTokens     = "prompt_tokens"
	fieldCompletionTokens = "completion_tokens"
	fieldTotalTokens      = "total_tokens"
)

// UsageStore implements the usage-tracking store on Redis. Counters for each
// model live in a single hash so a snapshot is one HGETALL.
type UsageStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewUsageStore creates a Redis usage store.
func NewUsageStore(client *redis.Client, keyPrefix string) *UsageStore {
	if keyPrefix == "" {
		keyPrefix = "howl"
	}
	return &UsageStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// RecordUsage adds a completed request's token counts to the model's totals.
func (s *UsageStore) RecordUsage(ctx context.Context, model string, usage domain.Usage) error {
	key := s.usageKey(model)

	logger := observability.FromContext(ctx)
	logger.Debug("recording usage",
		observability.String("key", key),
		observability.Int("total_tokens", usage.TotalTokens))

	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, key, fieldRequests, 1)
	pipe.HIncrBy(ctx, key, fieldPromptTokens, int64(usage.PromptTokens))
	pipe.HIncrBy(ctx, key, fieldCompletionTokens, int64(usage.CompletionTokens))
	pipe.HIncrBy(ctx, key, fieldTotalTokens, int64(usage.TotalTokens))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record usage for %s: %w", model, err)
	}

	return nil
}

// RecordFailure increments the model's failure counter.
func (s *UsageStore) RecordFailure(ctx context.Context, model string) error {
	key := s.usageKey(model)

	if err := s.client.HIncrBy(ctx, key, fieldFailures, 1).Err(); err != nil {
		return fmt.Errorf("failed to record failure for %s: %w", model, err)
	}

	return nil
}

// Snapshot returns the model's accumulated counters.
func (s *UsageStore) Snapshot(ctx context.Context, model string) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, s.usageKey(model)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read usage for %s: %w", model, err)
	}

	counters := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, parseErr := strconv.ParseInt(value, 10, 64)
		if parseErr != nil {
			return nil, fmt.Errorf("corrupt usage counter %s for %s: %w", field, model, parseErr)
		}
		counters[field] = n
	}

	return counters, nil
}

func (s *UsageStore) usageKey(model string) string {
	return fmt.Sprintf("%s:usage:%s", s.keyPrefix, model)
}
