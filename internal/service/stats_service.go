package service

import (
	"context"
	"log"
	"time"

	"tableside/internal/domain"
)

const (
	topProductsLimit  = 10
	recentOrdersLimit = 10
)

// StatsService is a read-only consumer of persisted orders. Restaurant id 0
// means platform-wide. Partial data (a deleted product behind a historical
// order line, an empty rollup) degrades to empty results; only a storage that
// cannot be read at all surfaces an error.
type StatsService struct {
	repo  StatsRepository
	cache StatsCache
	ctx   context.Context
}

func NewStatsService(repo StatsRepository, cache StatsCache) *StatsService {
	return &StatsService{repo: repo, cache: cache, ctx: context.Background()}
}

func (s *StatsService) Statistics(restaurantID int) (*domain.Statistics, error) {
	if s.cache != nil {
		if cached, ok, err := s.cache.GetStatistics(s.ctx, restaurantID); err == nil && ok {
			return cached, nil
		}
	}

	revenue, err := s.repo.Revenue(restaurantID)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.repo.CountByStatus(restaurantID)
	if err != nil {
		return nil, err
	}

	stats := &domain.Statistics{
		RestaurantID:   restaurantID,
		Revenue:        revenue,
		OrdersByStatus: byStatus,
		TopProducts:    s.topProducts(restaurantID),
		RecentOrders:   s.recentOrders(restaurantID),
	}

	now := time.Now()
	stats.Today = s.bucket(restaurantID, startOfDay(now))
	stats.ThisWeek = s.bucket(restaurantID, startOfWeek(now))
	stats.ThisMonth = s.bucket(restaurantID, startOfMonth(now))

	if s.cache != nil {
		if err := s.cache.SetStatistics(s.ctx, restaurantID, stats); err != nil {
			log.Printf("stats: failed to cache statistics for restaurant %d: %v", restaurantID, err)
		}
	}
	return stats, nil
}

// topProducts prefers the Redis rollups the consumer maintains and falls back
// to a full order scan. Products deleted from the catalog since they were
// ordered are skipped, not fatal.
func (s *StatsService) topProducts(restaurantID int) []domain.ProductStat {
	if s.cache != nil {
		ranked, err := s.cache.TopProducts(s.ctx, restaurantID, topProductsLimit)
		if err == nil && len(ranked) > 0 {
			top := make([]domain.ProductStat, 0, len(ranked))
			for _, stat := range ranked {
				name, err := s.repo.ProductName(stat.ProductID)
				if err != nil {
					continue
				}
				stat.ProductName = name
				top = append(top, stat)
			}
			if len(top) > 0 {
				return top
			}
		}
	}

	top, err := s.repo.TopProducts(restaurantID, topProductsLimit)
	if err != nil {
		log.Printf("stats: top products query failed for restaurant %d: %v", restaurantID, err)
		return []domain.ProductStat{}
	}
	if top == nil {
		top = []domain.ProductStat{}
	}
	return top
}

func (s *StatsService) recentOrders(restaurantID int) []domain.Order {
	recent, err := s.repo.RecentOrders(restaurantID, recentOrdersLimit)
	if err != nil {
		log.Printf("stats: recent orders query failed for restaurant %d: %v", restaurantID, err)
		return []domain.Order{}
	}
	if recent == nil {
		recent = []domain.Order{}
	}
	return recent
}

func (s *StatsService) bucket(restaurantID int, since time.Time) domain.BucketStat {
	bucket, err := s.repo.BucketSince(restaurantID, since)
	if err != nil {
		log.Printf("stats: bucket query failed for restaurant %d since %s: %v", restaurantID, since.Format("2006-01-02"), err)
		return domain.BucketStat{}
	}
	return bucket
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	// Weeks start on Monday.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

var _ StatsServiceInterface = (*StatsService)(nil)
