package tests

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tableside/internal/domain"
	"tableside/internal/mocks"
	"tableside/internal/service"
)

type orderFixture struct {
	svc       *service.OrderService
	orders    *mocks.OrderRepository
	catalog   *mocks.ProductRepository
	carts     *mocks.CartRepository
	qr        *mocks.QRGenerator
	publisher *mocks.EventPublisher
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	identity := new(mocks.IdentityRepository)
	identity.On("AccountExists", 7).Return(true, nil)
	identity.On("AccountExists", 999).Return(false, nil)
	identity.On("RestaurantExists", 3).Return(true, nil)
	identity.On("RestaurantExists", 888).Return(false, nil)

	f := &orderFixture{
		orders:    new(mocks.OrderRepository),
		catalog:   new(mocks.ProductRepository),
		carts:     new(mocks.CartRepository),
		qr:        new(mocks.QRGenerator),
		publisher: new(mocks.EventPublisher),
	}
	f.svc = service.NewOrderService(f.orders, identity, f.catalog, f.carts, f.qr, f.publisher)
	return f
}

func (f *orderFixture) expectPersistence(assignID int) {
	f.orders.On("CreateOrder", mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) {
			args.Get(0).(*domain.Order).ID = assignID
		}).Return(nil).Once()
	f.qr.On("Generate", assignID).Return([]byte("png"), nil).Once()
	f.orders.On("SaveQRCode", assignID, []byte("png")).Return(nil).Once()
	f.publisher.On("PublishOrderEvent", mock.Anything, mock.AnythingOfType("domain.OrderEvent")).Return(nil).Once()
}

func TestOrderService_Place(t *testing.T) {
	f := newOrderFixture(t)
	f.catalog.On("ResolveProduct", 1).Return(&domain.Product{ID: 1, Name: "Ramen", Price: money("10.50")}, nil)
	f.catalog.On("ResolveProduct", 2).Return(&domain.Product{ID: 2, Name: "Tea", Price: money("3.25")}, nil)
	f.expectPersistence(101)

	order, err := f.svc.Place(7, 3, []domain.OrderLineInput{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, 101, order.ID)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.True(t, order.Total.Equal(money("24.25")), "total %s", order.Total)
	assert.Equal(t, "/api/orders/101/qrcode", order.QRCode)

	require.Len(t, order.Lines, 2)
	assert.Equal(t, "Ramen", order.Lines[0].ProductName)
	assert.True(t, order.Lines[0].PriceAtOrder.Equal(money("10.50")))

	f.orders.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestOrderService_Place_RoundsTotalHalfUp(t *testing.T) {
	f := newOrderFixture(t)
	f.catalog.On("ResolveProduct", 1).Return(&domain.Product{ID: 1, Name: "Thirds", Price: money("3.335")}, nil)
	f.expectPersistence(102)

	order, err := f.svc.Place(7, 3, []domain.OrderLineInput{{ProductID: 1, Quantity: 3}})

	require.NoError(t, err)
	// 3.335 * 3 = 10.005, rounded half up to 10.01.
	assert.True(t, order.Total.Equal(money("10.01")), "total %s", order.Total)
}

func TestOrderService_Place_EmptyLines(t *testing.T) {
	f := newOrderFixture(t)
	f.expectPersistence(103)

	order, err := f.svc.Place(7, 3, nil)

	require.NoError(t, err)
	assert.True(t, order.Total.IsZero(), "total %s", order.Total)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Empty(t, order.Lines)
}

func TestOrderService_Place_Errors(t *testing.T) {
	tests := []struct {
		name         string
		accountID    int
		restaurantID int
		lines        []domain.OrderLineInput
		wantErr      error
	}{
		{
			name: "unknown account", accountID: 999, restaurantID: 3,
			wantErr: service.ErrAccountNotFound,
		},
		{
			name: "unknown restaurant", accountID: 7, restaurantID: 888,
			wantErr: service.ErrRestaurantNotFound,
		},
		{
			name: "zero quantity line", accountID: 7, restaurantID: 3,
			lines:   []domain.OrderLineInput{{ProductID: 1, Quantity: 0}},
			wantErr: service.ErrInvalidQuantity,
		},
		{
			name: "unknown product aborts the whole order", accountID: 7, restaurantID: 3,
			lines: []domain.OrderLineInput{
				{ProductID: 1, Quantity: 1},
				{ProductID: 404, Quantity: 1},
			},
			wantErr: service.ErrProductNotFound,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			f := newOrderFixture(t)
			f.catalog.On("ResolveProduct", 1).Return(&domain.Product{ID: 1, Name: "Ramen", Price: money("10.50")}, nil)
			f.catalog.On("ResolveProduct", 404).Return(nil, sql.ErrNoRows)

			_, err := f.svc.Place(testCase.accountID, testCase.restaurantID, testCase.lines)

			assert.ErrorIs(t, err, testCase.wantErr)
			f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything)
			f.publisher.AssertNotCalled(t, "PublishOrderEvent", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderService_PlaceFromCart_RepricesFromCatalog(t *testing.T) {
	f := newOrderFixture(t)

	// The cart carries a stale snapshot price; the order must use the
	// current catalog price instead.
	f.carts.On("GetOrCreateCart", 7).Return(&domain.Cart{
		AccountID: 7,
		Items:     []domain.CartItem{{ProductID: 1, UnitPrice: money("9.00"), Quantity: 2}},
		Total:     money("18.00"),
	}, nil)
	f.catalog.On("ResolveProduct", 1).Return(&domain.Product{ID: 1, Name: "Ramen", Price: money("10.50")}, nil)
	f.expectPersistence(104)

	order, err := f.svc.PlaceFromCart(7, 3)

	require.NoError(t, err)
	assert.True(t, order.Total.Equal(money("21.00")), "total %s", order.Total)
	require.Len(t, order.Lines, 1)
	assert.True(t, order.Lines[0].PriceAtOrder.Equal(money("10.50")))

	// Checkout does not clear the cart.
	f.carts.AssertNotCalled(t, "MutateCart", mock.Anything, mock.Anything)
}

func TestOrderService_Get(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetOrder", 101).Return(&domain.Order{ID: 101, Status: domain.StatusPending}, nil)
	f.orders.On("GetOrder", 404).Return(nil, sql.ErrNoRows)

	order, err := f.svc.Get(101)
	require.NoError(t, err)
	assert.Equal(t, "/api/orders/101/qrcode", order.QRCode)

	_, err = f.svc.Get(404)
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}

func TestOrderService_SetStatus_TransitionGraph(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.OrderStatus
		to      domain.OrderStatus
		allowed bool
	}{
		{name: "pending accepted", from: domain.StatusPending, to: domain.StatusAccepted, allowed: true},
		{name: "accepted preparing", from: domain.StatusAccepted, to: domain.StatusPreparing, allowed: true},
		{name: "preparing ready", from: domain.StatusPreparing, to: domain.StatusReady, allowed: true},
		{name: "ready delivered", from: domain.StatusReady, to: domain.StatusDelivered, allowed: true},
		{name: "delivered finished", from: domain.StatusDelivered, to: domain.StatusFinished, allowed: true},
		{name: "pending cancelled", from: domain.StatusPending, to: domain.StatusCancelled, allowed: true},
		{name: "accepted cancelled", from: domain.StatusAccepted, to: domain.StatusCancelled, allowed: true},
		{name: "preparing cancelled", from: domain.StatusPreparing, to: domain.StatusCancelled, allowed: true},
		{name: "ready cancelled", from: domain.StatusReady, to: domain.StatusCancelled, allowed: true},
		{name: "skip a stage", from: domain.StatusPending, to: domain.StatusPreparing, allowed: false},
		{name: "move backwards", from: domain.StatusReady, to: domain.StatusAccepted, allowed: false},
		{name: "cancel after delivery", from: domain.StatusDelivered, to: domain.StatusCancelled, allowed: false},
		{name: "leave finished", from: domain.StatusFinished, to: domain.StatusAccepted, allowed: false},
		{name: "leave cancelled", from: domain.StatusCancelled, to: domain.StatusPending, allowed: false},
		{name: "revive finished", from: domain.StatusFinished, to: domain.StatusCancelled, allowed: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			f := newOrderFixture(t)
			f.orders.On("GetOrder", 101).Return(&domain.Order{ID: 101, RestaurantID: 3, Status: testCase.from}, nil)

			if testCase.allowed {
				f.orders.On("UpdateStatusGuard", 101, testCase.from, testCase.to).Return(int64(1), nil).Once()
				f.publisher.On("PublishOrderEvent", mock.Anything, mock.AnythingOfType("domain.OrderEvent")).Return(nil).Once()
			}

			order, err := f.svc.SetStatus(101, testCase.to)

			if testCase.allowed {
				require.NoError(t, err)
				assert.Equal(t, testCase.to, order.Status)
			} else {
				assert.ErrorIs(t, err, service.ErrInvalidTransition)
				f.orders.AssertNotCalled(t, "UpdateStatusGuard", mock.Anything, mock.Anything, mock.Anything)
			}
			f.orders.AssertExpectations(t)
		})
	}
}

func TestOrderService_SetStatus_UnknownStatus(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.SetStatus(101, domain.OrderStatus("SHIPPED"))

	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}

func TestOrderService_SetStatus_LostRaceRetriesThenConflicts(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetOrder", 101).Return(&domain.Order{ID: 101, Status: domain.StatusPending}, nil)
	// The guard keeps missing: another writer moves the order every time.
	f.orders.On("UpdateStatusGuard", 101, domain.StatusPending, domain.StatusAccepted).Return(int64(0), nil).Times(3)

	_, err := f.svc.SetStatus(101, domain.StatusAccepted)

	assert.ErrorIs(t, err, service.ErrConflict)
	f.publisher.AssertNotCalled(t, "PublishOrderEvent", mock.Anything, mock.Anything)
	f.orders.AssertExpectations(t)
}

func TestOrderService_QRCodePNG(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetQRCode", 101).Return([]byte("stored"), nil)

	qr, err := f.svc.QRCodePNG(101)

	require.NoError(t, err)
	assert.Equal(t, []byte("stored"), qr)
}

func TestOrderService_QRCodePNG_RegeneratesMissing(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetQRCode", 101).Return([]byte{}, nil)
	f.qr.On("Generate", 101).Return([]byte("fresh"), nil).Once()
	f.orders.On("SaveQRCode", 101, []byte("fresh")).Return(nil).Once()

	qr, err := f.svc.QRCodePNG(101)

	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), qr)
	f.orders.AssertExpectations(t)
}

func TestOrderService_QRCodePNG_NotFound(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetQRCode", 404).Return(nil, sql.ErrNoRows)

	_, err := f.svc.QRCodePNG(404)

	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}
