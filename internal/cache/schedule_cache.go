package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/fund-ledger/internal/domain"
	"github.com/segyhp/fund-ledger/internal/repository"
)

// ScheduleCache keeps payment schedule read models in redis as JSON.
type ScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ repository.ScheduleCache = (*ScheduleCache)(nil)

func NewScheduleCache(client *redis.Client, ttl time.Duration) *ScheduleCache {
	return &ScheduleCache{client: client, ttl: ttl}
}

func ScheduleKey(loanID string) string {
	return fmt.Sprintf("loan:schedule:%s", loanID)
}

// Get returns found=false on a cache miss.
func (c *ScheduleCache) Get(ctx context.Context, loanID string) (*domain.PaymentSchedule, bool, error) {
	data, err := c.client.Get(ctx, ScheduleKey(loanID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var schedule domain.PaymentSchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached schedule: %w", err)
	}
	return &schedule, true, nil
}

func (c *ScheduleCache) Set(ctx context.Context, schedule *domain.PaymentSchedule) error {
	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}
	return c.client.Set(ctx, ScheduleKey(schedule.LoanID), data, c.ttl).Err()
}

func (c *ScheduleCache) Invalidate(ctx context.Context, loanID string) error {
	return c.client.Del(ctx, ScheduleKey(loanID)).Err()
}

// NewClient builds a redis client from a URL or a host address.
func NewClient(url, addr, password string, db int) (*redis.Client, error) {
	if url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	if addr == "" {
		return nil, nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), nil
}
