package storage

import (
	"database/sql"
	"fmt"

	"tableside/internal/domain"
)

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

// EnsureSchema creates the tables the service needs. Statements are
// idempotent so startup can run them unconditionally.
func (r *PostgresRepository) EnsureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS restaurants (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT,
			description TEXT,
			image_url TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id SERIAL PRIMARY KEY,
			restaurant_id INT NOT NULL REFERENCES restaurants(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			description TEXT,
			price NUMERIC(10,2) NOT NULL,
			image_url TEXT,
			category_id INT NOT NULL DEFAULT 0,
			category_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			id SERIAL PRIMARY KEY,
			account_id INT NOT NULL UNIQUE REFERENCES accounts(id) ON DELETE CASCADE,
			total NUMERIC(10,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			cart_id INT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
			product_id INT NOT NULL,
			product_name TEXT NOT NULL DEFAULT '',
			unit_price NUMERIC(10,2) NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			category_id INT NOT NULL DEFAULT 0,
			category_name TEXT NOT NULL DEFAULT '',
			quantity INT NOT NULL,
			position INT NOT NULL,
			PRIMARY KEY (cart_id, product_id)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id SERIAL PRIMARY KEY,
			account_id INT NOT NULL REFERENCES accounts(id),
			restaurant_id INT NOT NULL REFERENCES restaurants(id),
			status TEXT NOT NULL DEFAULT 'PENDING',
			total NUMERIC(10,2) NOT NULL,
			qr_code BYTEA,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS order_lines (
			order_id INT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id INT NOT NULL,
			product_name TEXT NOT NULL DEFAULT '',
			quantity INT NOT NULL,
			price_at_order NUMERIC(10,2) NOT NULL,
			PRIMARY KEY (order_id, product_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_restaurant_created ON orders (restaurant_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := r.DB.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) CreateAccount(account *domain.Account) error {
	return r.DB.QueryRow(
		"INSERT INTO accounts (name) VALUES ($1) RETURNING id, created_at",
		account.Name,
	).Scan(&account.ID, &account.CreatedAt)
}

func (r *PostgresRepository) AccountExists(accountID int) (bool, error) {
	var exists bool
	err := r.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)", accountID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) RestaurantExists(restaurantID int) (bool, error) {
	var exists bool
	err := r.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM restaurants WHERE id = $1)", restaurantID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) CreateRestaurant(rest *domain.Restaurant) error {
	return r.DB.QueryRow(
		"INSERT INTO restaurants (name, address, description) VALUES ($1, $2, $3) RETURNING id, created_at",
		rest.Name, rest.Address, rest.Description,
	).Scan(&rest.ID, &rest.CreatedAt)
}

func (r *PostgresRepository) ListRestaurants() ([]domain.Restaurant, error) {
	rows, err := r.DB.Query(`
		SELECT id, name, COALESCE(address, ''), COALESCE(description, ''), COALESCE(image_url, ''), created_at
		FROM restaurants
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restaurants []domain.Restaurant
	for rows.Next() {
		var rest domain.Restaurant
		if err := rows.Scan(&rest.ID, &rest.Name, &rest.Address, &rest.Description, &rest.ImageURL, &rest.CreatedAt); err != nil {
			continue
		}
		restaurants = append(restaurants, rest)
	}
	return restaurants, nil
}

func (r *PostgresRepository) GetRestaurant(id int) (*domain.Restaurant, error) {
	var rest domain.Restaurant
	err := r.DB.QueryRow(`
		SELECT id, name, COALESCE(address, ''), COALESCE(description, ''), COALESCE(image_url, ''), created_at
		FROM restaurants
		WHERE id = $1`, id).
		Scan(&rest.ID, &rest.Name, &rest.Address, &rest.Description, &rest.ImageURL, &rest.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

func (r *PostgresRepository) UpdateRestaurant(rest *domain.Restaurant) error {
	return r.DB.QueryRow(
		"UPDATE restaurants SET name=$1, address=$2, description=$3 WHERE id=$4 RETURNING id, name, address, description, COALESCE(image_url, ''), created_at",
		rest.Name, rest.Address, rest.Description, rest.ID).
		Scan(&rest.ID, &rest.Name, &rest.Address, &rest.Description, &rest.ImageURL, &rest.CreatedAt)
}

func (r *PostgresRepository) DeleteRestaurant(id int) (int64, error) {
	result, err := r.DB.Exec("DELETE FROM restaurants WHERE id=$1", id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) UpdateRestaurantImage(id int, imageURL string) error {
	_, err := r.DB.Exec("UPDATE restaurants SET image_url=$1 WHERE id=$2", imageURL, id)
	return err
}

func (r *PostgresRepository) CreateProduct(product *domain.Product) error {
	return r.DB.QueryRow(`
		INSERT INTO products (restaurant_id, name, description, price, image_url, category_id, category_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		product.RestaurantID, product.Name, product.Description, product.Price,
		product.ImageURL, product.CategoryID, product.CategoryName).
		Scan(&product.ID, &product.CreatedAt)
}

func (r *PostgresRepository) ListProducts(restaurantID int) ([]domain.Product, error) {
	rows, err := r.DB.Query(`
		SELECT id, restaurant_id, name, COALESCE(description, ''), price, COALESCE(image_url, ''), category_id, category_name, created_at
		FROM products
		WHERE restaurant_id = $1
		ORDER BY created_at DESC`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.RestaurantID, &product.Name, &product.Description,
			&product.Price, &product.ImageURL, &product.CategoryID, &product.CategoryName, &product.CreatedAt); err != nil {
			continue
		}
		products = append(products, product)
	}
	return products, nil
}

func (r *PostgresRepository) GetProduct(restaurantID, productID int) (*domain.Product, error) {
	var product domain.Product
	err := r.DB.QueryRow(`
		SELECT id, restaurant_id, name, COALESCE(description, ''), price, COALESCE(image_url, ''), category_id, category_name, created_at
		FROM products
		WHERE id = $1 AND restaurant_id = $2`, productID, restaurantID).
		Scan(&product.ID, &product.RestaurantID, &product.Name, &product.Description,
			&product.Price, &product.ImageURL, &product.CategoryID, &product.CategoryName, &product.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ResolveProduct looks a product up by id alone; it backs the catalog
// provider used by the cart and order services.
func (r *PostgresRepository) ResolveProduct(productID int) (*domain.Product, error) {
	var product domain.Product
	err := r.DB.QueryRow(`
		SELECT id, restaurant_id, name, COALESCE(description, ''), price, COALESCE(image_url, ''), category_id, category_name, created_at
		FROM products
		WHERE id = $1`, productID).
		Scan(&product.ID, &product.RestaurantID, &product.Name, &product.Description,
			&product.Price, &product.ImageURL, &product.CategoryID, &product.CategoryName, &product.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *PostgresRepository) UpdateProduct(product *domain.Product) error {
	_, err := r.DB.Exec(`
		UPDATE products
		SET name=$1, description=$2, price=$3, category_id=$4, category_name=$5
		WHERE id=$6 AND restaurant_id=$7`,
		product.Name, product.Description, product.Price,
		product.CategoryID, product.CategoryName, product.ID, product.RestaurantID)
	return err
}

func (r *PostgresRepository) DeleteProduct(restaurantID, productID int) (int64, error) {
	result, err := r.DB.Exec("DELETE FROM products WHERE id=$1 AND restaurant_id=$2", productID, restaurantID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) UpdateProductImage(restaurantID, productID int, imageURL string) error {
	_, err := r.DB.Exec("UPDATE products SET image_url=$1 WHERE id=$2 AND restaurant_id=$3",
		imageURL, productID, restaurantID)
	return err
}
