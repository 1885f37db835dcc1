package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"tableside/internal/domain"
)

// mutateRetries bounds deadlock retries inside MutateCart.
const mutateRetries = 3

type rowQuerier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// GetOrCreateCart returns the account's cart, inserting an empty one when the
// account has none yet.
func (r *PostgresRepository) GetOrCreateCart(accountID int) (*domain.Cart, error) {
	if _, err := r.DB.Exec(
		"INSERT INTO carts (account_id) VALUES ($1) ON CONFLICT (account_id) DO NOTHING", accountID); err != nil {
		return nil, err
	}
	return r.loadCart(r.DB, accountID, false)
}

// MutateCart runs the callback on the current cart while holding a row lock
// on the cart, then persists items and total in the same transaction. The
// lock serialises concurrent mutations per account; cross-account calls never
// contend. Deadlocks are retried a bounded number of times.
func (r *PostgresRepository) MutateCart(accountID int, mutate func(cart *domain.Cart) error) (*domain.Cart, error) {
	var (
		cart *domain.Cart
		err  error
	)
	for attempt := 0; attempt < mutateRetries; attempt++ {
		cart, err = r.mutateCartOnce(accountID, mutate)
		if err == nil || !isRetryable(err) {
			return cart, err
		}
	}
	return nil, fmt.Errorf("cart mutation for account %d: %w", accountID, err)
}

func (r *PostgresRepository) mutateCartOnce(accountID int, mutate func(cart *domain.Cart) error) (*domain.Cart, error) {
	if _, err := r.DB.Exec(
		"INSERT INTO carts (account_id) VALUES ($1) ON CONFLICT (account_id) DO NOTHING", accountID); err != nil {
		return nil, err
	}

	tx, err := r.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	cart, err := r.loadCart(tx, accountID, true)
	if err != nil {
		return nil, err
	}

	if err := mutate(cart); err != nil {
		return nil, err
	}

	if _, err := tx.Exec("DELETE FROM cart_items WHERE cart_id = $1", cart.ID); err != nil {
		return nil, err
	}
	for i, item := range cart.Items {
		if _, err := tx.Exec(`
			INSERT INTO cart_items (cart_id, product_id, product_name, unit_price, image_url, category_id, category_name, quantity, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			cart.ID, item.ProductID, item.ProductName, item.UnitPrice,
			item.ImageURL, item.CategoryID, item.CategoryName, item.Quantity, i); err != nil {
			return nil, err
		}
	}

	if err := tx.QueryRow(
		"UPDATE carts SET total = $1, updated_at = now() WHERE id = $2 RETURNING updated_at",
		cart.Total, cart.ID).Scan(&cart.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *PostgresRepository) loadCart(q rowQuerier, accountID int, forUpdate bool) (*domain.Cart, error) {
	query := "SELECT id, account_id, total, created_at, updated_at FROM carts WHERE account_id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}

	var cart domain.Cart
	if err := q.QueryRow(query, accountID).
		Scan(&cart.ID, &cart.AccountID, &cart.Total, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		return nil, err
	}

	rows, err := q.Query(`
		SELECT product_id, product_name, unit_price, image_url, category_id, category_name, quantity
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY position`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.UnitPrice,
			&item.ImageURL, &item.CategoryID, &item.CategoryName, &item.Quantity); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	return &cart, rows.Err()
}

// isRetryable reports whether the error is a serialization failure or
// deadlock worth retrying.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
