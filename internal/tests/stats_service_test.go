package tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tableside/internal/domain"
	"tableside/internal/mocks"
	"tableside/internal/service"
)

func newStatsFixture(t *testing.T) (*service.StatsService, *mocks.StatsRepository, *mocks.StatsCache) {
	t.Helper()
	repo := new(mocks.StatsRepository)
	cache := new(mocks.StatsCache)
	return service.NewStatsService(repo, cache), repo, cache
}

func TestStatsService_Statistics(t *testing.T) {
	svc, repo, cache := newStatsFixture(t)

	cache.On("GetStatistics", mock.Anything, 3).Return(nil, false, nil)
	cache.On("TopProducts", mock.Anything, 3, 10).Return([]domain.ProductStat{}, nil)
	cache.On("SetStatistics", mock.Anything, 3, mock.AnythingOfType("*domain.Statistics")).Return(nil).Once()

	repo.On("Revenue", 3).Return(money("120.75"), nil)
	repo.On("CountByStatus", 3).Return(map[string]int{"PENDING": 2, "FINISHED": 5}, nil)
	repo.On("TopProducts", 3, 10).Return([]domain.ProductStat{
		{ProductID: 1, ProductName: "Ramen", OrderCount: 4, Revenue: money("42.00")},
	}, nil)
	repo.On("RecentOrders", 3, 10).Return([]domain.Order{{ID: 101}}, nil)
	repo.On("BucketSince", 3, mock.AnythingOfType("time.Time")).Return(domain.BucketStat{Orders: 2, Revenue: money("21.00")}, nil)

	stats, err := svc.Statistics(3)

	require.NoError(t, err)
	assert.True(t, stats.Revenue.Equal(money("120.75")))
	assert.Equal(t, 2, stats.OrdersByStatus["PENDING"])
	require.Len(t, stats.TopProducts, 1)
	assert.Equal(t, "Ramen", stats.TopProducts[0].ProductName)
	require.Len(t, stats.RecentOrders, 1)
	assert.Equal(t, 2, stats.Today.Orders)
	cache.AssertExpectations(t)
}

func TestStatsService_Statistics_CacheFastPath(t *testing.T) {
	svc, repo, cache := newStatsFixture(t)

	cached := &domain.Statistics{RestaurantID: 3, Revenue: money("50.00")}
	cache.On("GetStatistics", mock.Anything, 3).Return(cached, true, nil)

	stats, err := svc.Statistics(3)

	require.NoError(t, err)
	assert.Same(t, cached, stats)
	repo.AssertNotCalled(t, "Revenue", mock.Anything)
}

func TestStatsService_Statistics_RollupsFillNames(t *testing.T) {
	svc, repo, cache := newStatsFixture(t)

	cache.On("GetStatistics", mock.Anything, 0).Return(nil, false, nil)
	cache.On("TopProducts", mock.Anything, 0, 10).Return([]domain.ProductStat{
		{ProductID: 1, OrderCount: 9, Revenue: money("90.00")},
		{ProductID: 2, OrderCount: 4, Revenue: money("13.00")},
	}, nil)
	cache.On("SetStatistics", mock.Anything, 0, mock.Anything).Return(nil)

	repo.On("Revenue", 0).Return(money("103.00"), nil)
	repo.On("CountByStatus", 0).Return(map[string]int{}, nil)
	repo.On("RecentOrders", 0, 10).Return([]domain.Order{}, nil)
	repo.On("BucketSince", 0, mock.AnythingOfType("time.Time")).Return(domain.BucketStat{}, nil)
	repo.On("ProductName", 1).Return("Ramen", nil)
	// Product 2 was deleted from the catalog; it is skipped, not fatal.
	repo.On("ProductName", 2).Return("", assert.AnError)

	stats, err := svc.Statistics(0)

	require.NoError(t, err)
	require.Len(t, stats.TopProducts, 1)
	assert.Equal(t, "Ramen", stats.TopProducts[0].ProductName)
	assert.Equal(t, 9, stats.TopProducts[0].OrderCount)
	repo.AssertNotCalled(t, "TopProducts", mock.Anything, mock.Anything)
}

func TestStatsService_Statistics_DegradesPartialFailures(t *testing.T) {
	svc, repo, cache := newStatsFixture(t)

	cache.On("GetStatistics", mock.Anything, 3).Return(nil, false, nil)
	cache.On("TopProducts", mock.Anything, 3, 10).Return(nil, assert.AnError)
	cache.On("SetStatistics", mock.Anything, 3, mock.Anything).Return(nil)

	repo.On("Revenue", 3).Return(money("10.00"), nil)
	repo.On("CountByStatus", 3).Return(map[string]int{"PENDING": 1}, nil)
	repo.On("TopProducts", 3, 10).Return(nil, assert.AnError)
	repo.On("RecentOrders", 3, 10).Return(nil, assert.AnError)
	repo.On("BucketSince", 3, mock.AnythingOfType("time.Time")).Return(domain.BucketStat{}, assert.AnError)

	stats, err := svc.Statistics(3)

	require.NoError(t, err)
	assert.Empty(t, stats.TopProducts)
	assert.Empty(t, stats.RecentOrders)
	assert.Zero(t, stats.Today.Orders)
	assert.True(t, stats.Revenue.Equal(money("10.00")))
}

func TestStatsService_Statistics_CoreQueryFailureSurfaces(t *testing.T) {
	svc, repo, cache := newStatsFixture(t)

	cache.On("GetStatistics", mock.Anything, 3).Return(nil, false, nil)
	repo.On("Revenue", 3).Return(money("0"), assert.AnError)

	_, err := svc.Statistics(3)

	assert.Error(t, err)
	cache.AssertNotCalled(t, "SetStatistics", mock.Anything, mock.Anything, mock.Anything)
}
