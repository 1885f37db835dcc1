package tests

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableside/internal/domain"
	"tableside/internal/storage"
)

func setupRepo(t *testing.T) (*storage.PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewPostgresRepository(db), mock
}

func TestPostgresRepository_UpdateStatusGuard(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("ACCEPTED", 101, "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.UpdateStatusGuard(101, domain.StatusPending, domain.StatusAccepted)

	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateStatusGuard_Miss(t *testing.T) {
	repo, mock := setupRepo(t)

	// Stored status no longer matches: the guard touches nothing.
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("ACCEPTED", 101, "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.UpdateStatusGuard(101, domain.StatusPending, domain.StatusAccepted)

	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestPostgresRepository_CreateOrder(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(7, 3, "PENDING", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(101, time.Now()))
	mock.ExpectExec("INSERT INTO order_lines").
		WithArgs(101, 1, "Ramen", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order := &domain.Order{
		AccountID:    7,
		RestaurantID: 3,
		Status:       domain.StatusPending,
		Total:        money("21.00"),
		Lines: []domain.OrderLine{
			{ProductID: 1, ProductName: "Ramen", Quantity: 2, PriceAtOrder: money("10.50")},
		},
	}
	err := repo.CreateOrder(order)

	require.NoError(t, err)
	assert.Equal(t, 101, order.ID)
	assert.Equal(t, 101, order.Lines[0].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_CreateOrder_LineFailureRollsBack(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(7, 3, "PENDING", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(101, time.Now()))
	mock.ExpectExec("INSERT INTO order_lines").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	order := &domain.Order{
		AccountID:    7,
		RestaurantID: 3,
		Status:       domain.StatusPending,
		Lines: []domain.OrderLine{
			{ProductID: 1, ProductName: "Ramen", Quantity: 2, PriceAtOrder: money("10.50")},
		},
	}
	err := repo.CreateOrder(order)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_MutateCart(t *testing.T) {
	repo, mock := setupRepo(t)
	now := time.Now()

	mock.ExpectExec("INSERT INTO carts").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, account_id, total, created_at, updated_at FROM carts").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "total", "created_at", "updated_at"}).
			AddRow(1, 7, "10.50", now, now))
	mock.ExpectQuery("SELECT product_id, product_name, unit_price").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_name", "unit_price", "image_url", "category_id", "category_name", "quantity"}).
			AddRow(1, "Ramen", "10.50", "", 0, "", 1))
	mock.ExpectExec("DELETE FROM cart_items").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO cart_items").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE carts SET total").
		WithArgs(sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectCommit()

	cart, err := repo.MutateCart(7, func(cart *domain.Cart) error {
		cart.Items[0].Quantity = 3
		cart.RecomputeTotal()
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, cart.Total.Equal(money("31.50")), "total %s", cart.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_MutateCart_CallbackFailureRollsBack(t *testing.T) {
	repo, mock := setupRepo(t)
	now := time.Now()

	mock.ExpectExec("INSERT INTO carts").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, account_id, total, created_at, updated_at FROM carts").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "total", "created_at", "updated_at"}).
			AddRow(1, 7, "0", now, now))
	mock.ExpectQuery("SELECT product_id, product_name, unit_price").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_name", "unit_price", "image_url", "category_id", "category_name", "quantity"}))
	mock.ExpectRollback()

	_, err := repo.MutateCart(7, func(cart *domain.Cart) error {
		return assert.AnError
	})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetQRCode(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT qr_code FROM orders WHERE id").
		WithArgs(101).
		WillReturnRows(sqlmock.NewRows([]string{"qr_code"}).AddRow([]byte("png")))

	qr, err := repo.GetQRCode(101)

	require.NoError(t, err)
	assert.Equal(t, []byte("png"), qr)
}
