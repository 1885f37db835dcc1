package service

import "errors"

// Business outcomes surfaced to callers. The HTTP layer maps each of these to
// a status code; everything else is treated as an internal error.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrItemNotFound       = errors.New("cart item not found")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrConflict           = errors.New("concurrent modification, retry")
	ErrInconsistentCart   = errors.New("cart total does not match items")
)
