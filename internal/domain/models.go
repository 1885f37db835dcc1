package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Restaurant struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID           int             `json:"id"`
	RestaurantID int             `json:"restaurant_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"image_url"`
	CategoryID   int             `json:"category_id"`
	CategoryName string          `json:"category_name"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Cart struct {
	ID        int             `json:"id"`
	AccountID int             `json:"account_id"`
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CartItem carries a snapshot of the product taken when the item was added.
// Name, price, image and category are display fields frozen at add time and
// are not refreshed when the catalog changes.
type CartItem struct {
	ProductID    int             `json:"product_id"`
	ProductName  string          `json:"product_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ImageURL     string          `json:"image_url"`
	CategoryID   int             `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Quantity     int             `json:"quantity"`
}

// RecomputeTotal derives the cart total from its current items. Every
// mutation path must call this before persisting so the total never drifts
// from the item list.
func (c *Cart) RecomputeTotal() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	c.Total = total
}

// FindItem returns the index of the item for the given product, or -1.
func (c *Cart) FindItem(productID int) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

type Order struct {
	ID             int             `json:"id"`
	AccountID      int             `json:"account_id"`
	RestaurantID   int             `json:"restaurant_id"`
	RestaurantName string          `json:"restaurant_name,omitempty"`
	Status         OrderStatus     `json:"status"`
	Total          decimal.Decimal `json:"total"`
	QRCode         string          `json:"qr_code,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Lines          []OrderLine     `json:"lines"`
}

// OrderLine is keyed by (OrderID, ProductID). PriceAtOrder is the unit price
// captured when the order was placed; it is never re-read from the catalog.
type OrderLine struct {
	OrderID      int             `json:"order_id"`
	ProductID    int             `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
}

// OrderLineInput is a product/quantity pair supplied by a caller placing an
// order directly, before catalog prices have been resolved.
type OrderLineInput struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type ProductStat struct {
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	OrderCount  int             `json:"order_count"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type BucketStat struct {
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Statistics struct {
	RestaurantID   int             `json:"restaurant_id,omitempty"`
	Revenue        decimal.Decimal `json:"revenue"`
	OrdersByStatus map[string]int  `json:"orders_by_status"`
	TopProducts    []ProductStat   `json:"top_products"`
	RecentOrders   []Order         `json:"recent_orders"`
	Today          BucketStat      `json:"today"`
	ThisWeek       BucketStat      `json:"this_week"`
	ThisMonth      BucketStat      `json:"this_month"`
}
