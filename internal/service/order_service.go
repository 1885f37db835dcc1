package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"tableside/internal/domain"
)

// statusRetries bounds how often a lost status-transition race is retried
// before surfacing ErrConflict.
const statusRetries = 3

type OrderService struct {
	orders    OrderRepository
	identity  IdentityRepository
	catalog   ProductRepository
	carts     CartRepository
	qrEncoder QRGenerator
	events    EventPublisher
}

func NewOrderService(orders OrderRepository, identity IdentityRepository, catalog ProductRepository, carts CartRepository, qr QRGenerator, events EventPublisher) *OrderService {
	return &OrderService{
		orders:    orders,
		identity:  identity,
		catalog:   catalog,
		carts:     carts,
		qrEncoder: qr,
		events:    events,
	}
}

// Place converts a list of product/quantity pairs into a persisted order.
// Every line is re-priced from the catalog at this point; the captured price
// never changes afterwards. The order and all its lines are written in one
// transaction, so a failing line leaves nothing behind. An empty line list is
// allowed and produces a zero-total order.
func (s *OrderService) Place(accountID, restaurantID int, lines []domain.OrderLineInput) (*domain.Order, error) {
	if err := s.requireAccount(accountID); err != nil {
		return nil, err
	}
	if err := s.requireRestaurant(restaurantID); err != nil {
		return nil, err
	}

	orderLines := make([]domain.OrderLine, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, line.ProductID)
		}
		product, err := s.catalog.ResolveProduct(line.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, line.ProductID)
			}
			return nil, err
		}
		orderLines = append(orderLines, domain.OrderLine{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     line.Quantity,
			PriceAtOrder: product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	order := &domain.Order{
		AccountID:    accountID,
		RestaurantID: restaurantID,
		Status:       domain.StatusPending,
		Total:        total.Round(2),
		Lines:        orderLines,
	}
	if err := s.orders.CreateOrder(order); err != nil {
		return nil, err
	}

	if s.qrEncoder != nil {
		if qr, err := s.qrEncoder.Generate(order.ID); err == nil {
			_ = s.orders.SaveQRCode(order.ID, qr)
		} else {
			log.Printf("order %d: qr generation failed: %v", order.ID, err)
		}
	}
	order.QRCode = qrLink(order.ID)

	s.publish(domain.OrderEvent{
		Type:         domain.EventOrderPlaced,
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		Status:       order.Status,
		Total:        order.Total,
		Lines:        eventLines(order.Lines),
		Timestamp:    time.Now(),
	})

	return order, nil
}

// PlaceFromCart places an order from the account's current cart. The cart
// supplies only the product/quantity pairs; prices come from the catalog at
// conversion time. The cart is left untouched — clearing it is an explicit,
// separate call.
func (s *OrderService) PlaceFromCart(accountID, restaurantID int) (*domain.Order, error) {
	if err := s.requireAccount(accountID); err != nil {
		return nil, err
	}
	cart, err := s.carts.GetOrCreateCart(accountID)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.OrderLineInput, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, domain.OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return s.Place(accountID, restaurantID, lines)
}

func (s *OrderService) Get(orderID int) (*domain.Order, error) {
	order, err := s.orders.GetOrder(orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", ErrOrderNotFound, orderID)
		}
		return nil, err
	}
	order.QRCode = qrLink(order.ID)
	return order, nil
}

func (s *OrderService) List() ([]domain.Order, error) {
	return s.orders.ListOrders()
}

// SetStatus applies one hop of the status graph. The repository update is
// guarded on the status the validation saw, so a concurrent transition makes
// the guard miss and the loop re-validates against the fresh state instead of
// applying a stale decision.
func (s *OrderService) SetStatus(orderID int, target domain.OrderStatus) (*domain.Order, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, string(target))
	}

	for attempt := 0; attempt < statusRetries; attempt++ {
		order, err := s.Get(orderID)
		if err != nil {
			return nil, err
		}
		if !order.Status.CanTransition(target) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, target)
		}

		affected, err := s.orders.UpdateStatusGuard(orderID, order.Status, target)
		if err != nil {
			return nil, err
		}
		if affected > 0 {
			order.Status = target
			s.publish(domain.OrderEvent{
				Type:         domain.EventStatusChanged,
				OrderID:      order.ID,
				RestaurantID: order.RestaurantID,
				Status:       target,
				Total:        order.Total,
				Timestamp:    time.Now(),
			})
			return order, nil
		}
		// Guard missed: someone else moved the order first.
	}
	return nil, fmt.Errorf("%w: order %d", ErrConflict, orderID)
}

func (s *OrderService) QRCodePNG(orderID int) ([]byte, error) {
	qr, err := s.orders.GetQRCode(orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", ErrOrderNotFound, orderID)
		}
		return nil, err
	}
	if len(qr) == 0 && s.qrEncoder != nil {
		regenerated, err := s.qrEncoder.Generate(orderID)
		if err != nil {
			return nil, err
		}
		if err := s.orders.SaveQRCode(orderID, regenerated); err != nil {
			log.Printf("order %d: failed to cache regenerated qr code: %v", orderID, err)
		}
		return regenerated, nil
	}
	return qr, nil
}

func (s *OrderService) requireAccount(accountID int) error {
	exists, err := s.identity.AccountExists(accountID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: account %d", ErrAccountNotFound, accountID)
	}
	return nil
}

func (s *OrderService) requireRestaurant(restaurantID int) error {
	exists, err := s.identity.RestaurantExists(restaurantID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: restaurant %d", ErrRestaurantNotFound, restaurantID)
	}
	return nil
}

func (s *OrderService) publish(evt domain.OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(context.Background(), evt); err != nil {
		log.Printf("order %d: failed to publish %s event: %v", evt.OrderID, evt.Type, err)
	}
}

func eventLines(lines []domain.OrderLine) []domain.OrderEventLine {
	out := make([]domain.OrderEventLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.OrderEventLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			LineTotal: line.PriceAtOrder.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}
	return out
}

func qrLink(orderID int) string {
	return fmt.Sprintf("/api/orders/%d/qrcode", orderID)
}

var _ OrderServiceInterface = (*OrderService)(nil)
