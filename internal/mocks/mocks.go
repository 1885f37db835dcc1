// Package mocks holds testify mocks for the service-layer interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"tableside/internal/domain"
)

type IdentityRepository struct {
	mock.Mock
}

func (m *IdentityRepository) CreateAccount(account *domain.Account) error {
	args := m.Called(account)
	return args.Error(0)
}

func (m *IdentityRepository) AccountExists(accountID int) (bool, error) {
	args := m.Called(accountID)
	return args.Bool(0), args.Error(1)
}

func (m *IdentityRepository) RestaurantExists(restaurantID int) (bool, error) {
	args := m.Called(restaurantID)
	return args.Bool(0), args.Error(1)
}

type RestaurantRepository struct {
	mock.Mock
}

func (m *RestaurantRepository) CreateRestaurant(rest *domain.Restaurant) error {
	args := m.Called(rest)
	return args.Error(0)
}

func (m *RestaurantRepository) ListRestaurants() ([]domain.Restaurant, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Restaurant), args.Error(1)
}

func (m *RestaurantRepository) GetRestaurant(id int) (*domain.Restaurant, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Restaurant), args.Error(1)
}

func (m *RestaurantRepository) UpdateRestaurant(rest *domain.Restaurant) error {
	args := m.Called(rest)
	return args.Error(0)
}

func (m *RestaurantRepository) DeleteRestaurant(id int) (int64, error) {
	args := m.Called(id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RestaurantRepository) UpdateRestaurantImage(id int, imageURL string) error {
	args := m.Called(id, imageURL)
	return args.Error(0)
}

type ProductRepository struct {
	mock.Mock
}

func (m *ProductRepository) CreateProduct(product *domain.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *ProductRepository) ListProducts(restaurantID int) ([]domain.Product, error) {
	args := m.Called(restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *ProductRepository) GetProduct(restaurantID, productID int) (*domain.Product, error) {
	args := m.Called(restaurantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *ProductRepository) UpdateProduct(product *domain.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *ProductRepository) DeleteProduct(restaurantID, productID int) (int64, error) {
	args := m.Called(restaurantID, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ProductRepository) UpdateProductImage(restaurantID, productID int, imageURL string) error {
	args := m.Called(restaurantID, productID, imageURL)
	return args.Error(0)
}

func (m *ProductRepository) ResolveProduct(productID int) (*domain.Product, error) {
	args := m.Called(productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

type CartRepository struct {
	mock.Mock
}

func (m *CartRepository) GetOrCreateCart(accountID int) (*domain.Cart, error) {
	args := m.Called(accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *CartRepository) MutateCart(accountID int, mutate func(cart *domain.Cart) error) (*domain.Cart, error) {
	args := m.Called(accountID, mutate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) CreateOrder(order *domain.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *OrderRepository) GetOrder(orderID int) (*domain.Order, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *OrderRepository) ListOrders() ([]domain.Order, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *OrderRepository) UpdateStatusGuard(orderID int, from, to domain.OrderStatus) (int64, error) {
	args := m.Called(orderID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepository) SaveQRCode(orderID int, qr []byte) error {
	args := m.Called(orderID, qr)
	return args.Error(0)
}

func (m *OrderRepository) GetQRCode(orderID int) ([]byte, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type StatsRepository struct {
	mock.Mock
}

func (m *StatsRepository) Revenue(restaurantID int) (decimal.Decimal, error) {
	args := m.Called(restaurantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *StatsRepository) CountByStatus(restaurantID int) (map[string]int, error) {
	args := m.Called(restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *StatsRepository) TopProducts(restaurantID, limit int) ([]domain.ProductStat, error) {
	args := m.Called(restaurantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductStat), args.Error(1)
}

func (m *StatsRepository) RecentOrders(restaurantID, limit int) ([]domain.Order, error) {
	args := m.Called(restaurantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *StatsRepository) BucketSince(restaurantID int, since time.Time) (domain.BucketStat, error) {
	args := m.Called(restaurantID, since)
	return args.Get(0).(domain.BucketStat), args.Error(1)
}

func (m *StatsRepository) ProductName(productID int) (string, error) {
	args := m.Called(productID)
	return args.String(0), args.Error(1)
}

type StatsCache struct {
	mock.Mock
}

func (m *StatsCache) GetStatistics(ctx context.Context, restaurantID int) (*domain.Statistics, bool, error) {
	args := m.Called(ctx, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Statistics), args.Bool(1), args.Error(2)
}

func (m *StatsCache) SetStatistics(ctx context.Context, restaurantID int, stats *domain.Statistics) error {
	args := m.Called(ctx, restaurantID, stats)
	return args.Error(0)
}

func (m *StatsCache) InvalidateStatistics(ctx context.Context, restaurantID int) error {
	args := m.Called(ctx, restaurantID)
	return args.Error(0)
}

func (m *StatsCache) TopProducts(ctx context.Context, restaurantID, limit int) ([]domain.ProductStat, error) {
	args := m.Called(ctx, restaurantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductStat), args.Error(1)
}

func (m *StatsCache) RecordOrderPlaced(ctx context.Context, evt domain.OrderEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) PublishOrderEvent(ctx context.Context, evt domain.OrderEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type QRGenerator struct {
	mock.Mock
}

func (m *QRGenerator) Generate(orderID int) ([]byte, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
