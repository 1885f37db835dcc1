package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"tableside/internal/domain"
)

// CreateOrder persists the order and all its lines in one transaction. A
// failing line aborts the whole insert so no partial order survives.
func (r *PostgresRepository) CreateOrder(order *domain.Order) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.QueryRow(`
		INSERT INTO orders (account_id, restaurant_id, status, total)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		order.AccountID, order.RestaurantID, string(order.Status), order.Total).
		Scan(&order.ID, &order.CreatedAt); err != nil {
		return err
	}

	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		line := order.Lines[i]
		if _, err := tx.Exec(`
			INSERT INTO order_lines (order_id, product_id, product_name, quantity, price_at_order)
			VALUES ($1, $2, $3, $4, $5)`,
			line.OrderID, line.ProductID, line.ProductName, line.Quantity, line.PriceAtOrder); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetOrder(orderID int) (*domain.Order, error) {
	var order domain.Order
	var status string
	err := r.DB.QueryRow(`
		SELECT o.id, o.account_id, o.restaurant_id, COALESCE(r.name, ''), o.status, o.total, o.created_at
		FROM orders o
		LEFT JOIN restaurants r ON o.restaurant_id = r.id
		WHERE o.id = $1`, orderID).
		Scan(&order.ID, &order.AccountID, &order.RestaurantID, &order.RestaurantName,
			&status, &order.Total, &order.CreatedAt)
	if err != nil {
		return nil, err
	}
	order.Status = domain.OrderStatus(status)

	rows, err := r.DB.Query(`
		SELECT order_id, product_id, product_name, quantity, price_at_order
		FROM order_lines
		WHERE order_id = $1
		ORDER BY product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order.Lines = []domain.OrderLine{}
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.OrderID, &line.ProductID, &line.ProductName, &line.Quantity, &line.PriceAtOrder); err != nil {
			continue
		}
		order.Lines = append(order.Lines, line)
	}
	return &order, nil
}

func (r *PostgresRepository) ListOrders() ([]domain.Order, error) {
	rows, err := r.DB.Query(`
		SELECT o.id, o.account_id, o.restaurant_id, COALESCE(r.name, ''), o.status, o.total, o.created_at
		FROM orders o
		LEFT JOIN restaurants r ON o.restaurant_id = r.id
		ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var order domain.Order
		var status string
		if err := rows.Scan(&order.ID, &order.AccountID, &order.RestaurantID, &order.RestaurantName,
			&status, &order.Total, &order.CreatedAt); err != nil {
			continue
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, order)
	}
	return orders, nil
}

// UpdateStatusGuard flips the status only when the stored status still equals
// from, so a concurrent transition loses cleanly instead of overwriting.
func (r *PostgresRepository) UpdateStatusGuard(orderID int, from, to domain.OrderStatus) (int64, error) {
	result, err := r.DB.Exec(
		"UPDATE orders SET status = $1 WHERE id = $2 AND status = $3",
		string(to), orderID, string(from))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) SaveQRCode(orderID int, qr []byte) error {
	_, err := r.DB.Exec("UPDATE orders SET qr_code = $1 WHERE id = $2", qr, orderID)
	return err
}

func (r *PostgresRepository) GetQRCode(orderID int) ([]byte, error) {
	var qr []byte
	err := r.DB.QueryRow("SELECT qr_code FROM orders WHERE id = $1", orderID).Scan(&qr)
	if err != nil {
		return nil, err
	}
	return qr, nil
}

func (r *PostgresRepository) Revenue(restaurantID int) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	err := r.DB.QueryRow(`
		SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE $1 = 0 OR restaurant_id = $1`, restaurantID).Scan(&revenue)
	return revenue, err
}

func (r *PostgresRepository) CountByStatus(restaurantID int) (map[string]int, error) {
	rows, err := r.DB.Query(`
		SELECT status, COUNT(*)
		FROM orders
		WHERE $1 = 0 OR restaurant_id = $1
		GROUP BY status`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			continue
		}
		counts[status] = count
	}
	return counts, nil
}

// TopProducts ranks products by how many orders contain them. The product
// name falls back to the order-line snapshot when the catalog row is gone.
func (r *PostgresRepository) TopProducts(restaurantID, limit int) ([]domain.ProductStat, error) {
	rows, err := r.DB.Query(`
		SELECT ol.product_id,
		       COALESCE(p.name, ol.product_name),
		       COUNT(*) AS order_count,
		       COALESCE(SUM(ol.price_at_order * ol.quantity), 0) AS revenue
		FROM order_lines ol
		JOIN orders o ON ol.order_id = o.id
		LEFT JOIN products p ON ol.product_id = p.id
		WHERE $1 = 0 OR o.restaurant_id = $1
		GROUP BY ol.product_id, COALESCE(p.name, ol.product_name)
		ORDER BY order_count DESC, revenue DESC
		LIMIT $2`, restaurantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []domain.ProductStat
	for rows.Next() {
		var stat domain.ProductStat
		if err := rows.Scan(&stat.ProductID, &stat.ProductName, &stat.OrderCount, &stat.Revenue); err != nil {
			continue
		}
		top = append(top, stat)
	}
	return top, nil
}

func (r *PostgresRepository) RecentOrders(restaurantID, limit int) ([]domain.Order, error) {
	rows, err := r.DB.Query(`
		SELECT o.id, o.account_id, o.restaurant_id, COALESCE(r.name, ''), o.status, o.total, o.created_at
		FROM orders o
		LEFT JOIN restaurants r ON o.restaurant_id = r.id
		WHERE $1 = 0 OR o.restaurant_id = $1
		ORDER BY o.created_at DESC
		LIMIT $2`, restaurantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		var status string
		if err := rows.Scan(&order.ID, &order.AccountID, &order.RestaurantID, &order.RestaurantName,
			&status, &order.Total, &order.CreatedAt); err != nil {
			continue
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *PostgresRepository) BucketSince(restaurantID int, since time.Time) (domain.BucketStat, error) {
	var bucket domain.BucketStat
	err := r.DB.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE created_at >= $2 AND ($1 = 0 OR restaurant_id = $1)`,
		restaurantID, since).Scan(&bucket.Orders, &bucket.Revenue)
	return bucket, err
}

func (r *PostgresRepository) ProductName(productID int) (string, error) {
	var name string
	err := r.DB.QueryRow("SELECT name FROM products WHERE id = $1", productID).Scan(&name)
	return name, err
}
