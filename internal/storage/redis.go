package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"tableside/internal/domain"
)

// RedisRollups keeps two things: a short-TTL cache of computed statistics
// views, and per-restaurant popularity rollups (order count and revenue per
// product) maintained by the event consumer. Restaurant id 0 holds the
// platform-wide rollup.
type RedisRollups struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisRollups(client *redis.Client, ttl time.Duration) *RedisRollups {
	return &RedisRollups{Client: client, TTL: ttl}
}

func statsViewKey(restaurantID int) string {
	return "stats:view:" + strconv.Itoa(restaurantID)
}

func popularCountKey(restaurantID int) string {
	return "stats:popular:count:" + strconv.Itoa(restaurantID)
}

func popularRevenueKey(restaurantID int) string {
	return "stats:popular:revenue:" + strconv.Itoa(restaurantID)
}

func (c *RedisRollups) GetStatistics(ctx context.Context, restaurantID int) (*domain.Statistics, bool, error) {
	payload, err := c.Client.Get(ctx, statsViewKey(restaurantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var stats domain.Statistics
	if err := json.Unmarshal(payload, &stats); err != nil {
		return nil, false, err
	}
	return &stats, true, nil
}

func (c *RedisRollups) SetStatistics(ctx context.Context, restaurantID int, stats *domain.Statistics) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, statsViewKey(restaurantID), payload, c.TTL).Err()
}

func (c *RedisRollups) InvalidateStatistics(ctx context.Context, restaurantID int) error {
	return c.Client.Del(ctx, statsViewKey(restaurantID), statsViewKey(0)).Err()
}

// RecordOrderPlaced folds one placed order into the per-restaurant and
// platform-wide popularity rollups.
func (c *RedisRollups) RecordOrderPlaced(ctx context.Context, evt domain.OrderEvent) error {
	for _, restaurantID := range []int{evt.RestaurantID, 0} {
		countKey := popularCountKey(restaurantID)
		revenueKey := popularRevenueKey(restaurantID)
		for _, line := range evt.Lines {
			member := strconv.Itoa(line.ProductID)
			if err := c.Client.ZIncrBy(ctx, countKey, 1, member).Err(); err != nil {
				return err
			}
			if err := c.Client.ZIncrBy(ctx, revenueKey, line.LineTotal.InexactFloat64(), member).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// TopProducts reads the popularity rollup. Revenue scores travel through
// float zset members, so they are approximate; authoritative numbers come
// from the database fallback.
func (c *RedisRollups) TopProducts(ctx context.Context, restaurantID, limit int) ([]domain.ProductStat, error) {
	ranked, err := c.Client.ZRevRangeWithScores(ctx, popularCountKey(restaurantID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	var top []domain.ProductStat
	for _, member := range ranked {
		raw, ok := member.Member.(string)
		if !ok {
			continue
		}
		productID, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		stat := domain.ProductStat{
			ProductID:  productID,
			OrderCount: int(member.Score),
		}
		if revenue, err := c.Client.ZScore(ctx, popularRevenueKey(restaurantID), raw).Result(); err == nil {
			stat.Revenue = decimal.NewFromFloat(revenue).Round(2)
		}
		top = append(top, stat)
	}
	return top, nil
}
