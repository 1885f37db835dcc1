package service

import (
	"database/sql"
	"errors"
	"fmt"

	"tableside/internal/domain"
)

// CartService owns the mutable per-account cart. Every mutation runs inside
// CartRepository.MutateCart so the item list and the recomputed total are
// persisted together.
type CartService struct {
	carts    CartRepository
	identity IdentityRepository
	catalog  ProductRepository
}

func NewCartService(carts CartRepository, identity IdentityRepository, catalog ProductRepository) *CartService {
	return &CartService{carts: carts, identity: identity, catalog: catalog}
}

func (s *CartService) Get(accountID int) (*domain.Cart, error) {
	if err := s.requireAccount(accountID); err != nil {
		return nil, err
	}
	cart, err := s.carts.GetOrCreateCart(accountID)
	if err != nil {
		return nil, err
	}
	if err := checkTotal(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) AddItem(accountID, productID, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if err := s.requireAccount(accountID); err != nil {
		return nil, err
	}

	product, err := s.catalog.ResolveProduct(productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, productID)
		}
		return nil, err
	}

	return s.carts.MutateCart(accountID, func(cart *domain.Cart) error {
		if idx := cart.FindItem(productID); idx >= 0 {
			cart.Items[idx].Quantity += quantity
		} else {
			cart.Items = append(cart.Items, domain.CartItem{
				ProductID:    product.ID,
				ProductName:  product.Name,
				UnitPrice:    product.Price,
				ImageURL:     product.ImageURL,
				CategoryID:   product.CategoryID,
				CategoryName: product.CategoryName,
				Quantity:     quantity,
			})
		}
		cart.RecomputeTotal()
		return nil
	})
}

func (s *CartService) UpdateItem(accountID, productID, quantity int) (*domain.Cart, error) {
	if err := s.requireAccount(accountID); err != nil {
		return nil, err
	}

	return s.carts.MutateCart(accountID, func(cart *domain.Cart) error {
		idx := cart.FindItem(productID)
		if idx < 0 {
			return fmt.Errorf("%w: product %d", ErrItemNotFound, productID)
		}
		if quantity <= 0 {
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		} else {
			cart.Items[idx].Quantity = quantity
		}
		cart.RecomputeTotal()
		return nil
	})
}

// RemoveItem is idempotent: removing a product that is not in the cart is a
// no-op, not an error.
func (s *CartService) RemoveItem(accountID, productID int) (*domain.Cart, error) {
	if err := s.requireAccount(accountID); err != nil {
		return nil, err
	}

	return s.carts.MutateCart(accountID, func(cart *domain.Cart) error {
		if idx := cart.FindItem(productID); idx >= 0 {
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		}
		cart.RecomputeTotal()
		return nil
	})
}

func (s *CartService) Clear(accountID int) error {
	if err := s.requireAccount(accountID); err != nil {
		return err
	}

	_, err := s.carts.MutateCart(accountID, func(cart *domain.Cart) error {
		cart.Items = []domain.CartItem{}
		cart.RecomputeTotal()
		return nil
	})
	return err
}

func (s *CartService) requireAccount(accountID int) error {
	exists, err := s.identity.AccountExists(accountID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: account %d", ErrAccountNotFound, accountID)
	}
	return nil
}

// checkTotal guards the read path against a stored total that no longer
// matches the items. A mismatch signals a bug in a mutation path.
func checkTotal(cart *domain.Cart) error {
	verify := *cart
	verify.RecomputeTotal()
	if !verify.Total.Equal(cart.Total) {
		return fmt.Errorf("%w: stored %s, computed %s", ErrInconsistentCart, cart.Total, verify.Total)
	}
	return nil
}

var _ CartServiceInterface = (*CartService)(nil)
