package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tableside/internal/domain"
)

type IdentityRepository interface {
	CreateAccount(account *domain.Account) error
	AccountExists(accountID int) (bool, error)
	RestaurantExists(restaurantID int) (bool, error)
}

type RestaurantRepository interface {
	CreateRestaurant(rest *domain.Restaurant) error
	ListRestaurants() ([]domain.Restaurant, error)
	GetRestaurant(id int) (*domain.Restaurant, error)
	UpdateRestaurant(rest *domain.Restaurant) error
	DeleteRestaurant(id int) (int64, error)
	UpdateRestaurantImage(id int, imageURL string) error
}

type ProductRepository interface {
	CreateProduct(product *domain.Product) error
	ListProducts(restaurantID int) ([]domain.Product, error)
	GetProduct(restaurantID, productID int) (*domain.Product, error)
	UpdateProduct(product *domain.Product) error
	DeleteProduct(restaurantID, productID int) (int64, error)
	UpdateProductImage(restaurantID, productID int, imageURL string) error
	ResolveProduct(productID int) (*domain.Product, error)
}

// CartRepository owns the per-account cart aggregate. MutateCart runs the
// callback while holding an exclusive lock on the cart row, so the
// read-mutate-recompute-persist cycle is atomic with respect to concurrent
// mutations of the same cart.
type CartRepository interface {
	GetOrCreateCart(accountID int) (*domain.Cart, error)
	MutateCart(accountID int, mutate func(cart *domain.Cart) error) (*domain.Cart, error)
}

type OrderRepository interface {
	// CreateOrder persists the order and all its lines in one transaction
	// and fills in the generated id and creation timestamp.
	CreateOrder(order *domain.Order) error
	GetOrder(orderID int) (*domain.Order, error)
	ListOrders() ([]domain.Order, error)
	// UpdateStatusGuard moves the order from one status to another only if
	// the persisted status still matches; it reports affected rows so the
	// caller can distinguish a lost race from success.
	UpdateStatusGuard(orderID int, from, to domain.OrderStatus) (int64, error)
	SaveQRCode(orderID int, qr []byte) error
	GetQRCode(orderID int) ([]byte, error)
}

type StatsRepository interface {
	Revenue(restaurantID int) (decimal.Decimal, error)
	CountByStatus(restaurantID int) (map[string]int, error)
	TopProducts(restaurantID, limit int) ([]domain.ProductStat, error)
	RecentOrders(restaurantID, limit int) ([]domain.Order, error)
	BucketSince(restaurantID int, since time.Time) (domain.BucketStat, error)
	ProductName(productID int) (string, error)
}

// StatsCache is the Redis side of the statistics pipeline: a short-TTL cache
// of computed statistics plus the popularity rollups the consumer maintains.
type StatsCache interface {
	GetStatistics(ctx context.Context, restaurantID int) (*domain.Statistics, bool, error)
	SetStatistics(ctx context.Context, restaurantID int, stats *domain.Statistics) error
	InvalidateStatistics(ctx context.Context, restaurantID int) error
	TopProducts(ctx context.Context, restaurantID, limit int) ([]domain.ProductStat, error)
	RecordOrderPlaced(ctx context.Context, evt domain.OrderEvent) error
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, evt domain.OrderEvent) error
}

type CartServiceInterface interface {
	Get(accountID int) (*domain.Cart, error)
	AddItem(accountID, productID, quantity int) (*domain.Cart, error)
	UpdateItem(accountID, productID, quantity int) (*domain.Cart, error)
	RemoveItem(accountID, productID int) (*domain.Cart, error)
	Clear(accountID int) error
}

type OrderServiceInterface interface {
	Place(accountID, restaurantID int, lines []domain.OrderLineInput) (*domain.Order, error)
	PlaceFromCart(accountID, restaurantID int) (*domain.Order, error)
	Get(orderID int) (*domain.Order, error)
	List() ([]domain.Order, error)
	SetStatus(orderID int, status domain.OrderStatus) (*domain.Order, error)
	QRCodePNG(orderID int) ([]byte, error)
}

type StatsServiceInterface interface {
	Statistics(restaurantID int) (*domain.Statistics, error)
}

type RestaurantServiceInterface interface {
	Create(rest *domain.Restaurant) error
	List() ([]domain.Restaurant, error)
	Get(id int) (*domain.Restaurant, error)
	Update(rest *domain.Restaurant) error
	Delete(id int) (int64, error)
	UpdateImage(id int, imageURL string) error
}

type ProductServiceInterface interface {
	Create(product *domain.Product) error
	List(restaurantID int) ([]domain.Product, error)
	Get(restaurantID, productID int) (*domain.Product, error)
	Update(product *domain.Product) error
	Delete(restaurantID, productID int) (int64, error)
	UpdateImage(restaurantID, productID int, imageURL string) error
}
