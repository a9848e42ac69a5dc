package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrLineNotFound is returned by UpdateQuantity when the cart holds no line for the product.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrInvalidQuantity is returned when Add is called with a quantity below one.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrCartClosed is returned by mutations on a store whose session was purged.
	ErrCartClosed = errors.New("cart closed")
	// ErrSlotEmpty is returned by a Slot when nothing is stored under the key.
	ErrSlotEmpty = errors.New("cart slot empty")
)

// OutOfStockError reports an add for a product whose captured stock is zero.
type OutOfStockError struct {
	ProductID int64
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %d is out of stock", e.ProductID)
}

// InsufficientStockError reports a quantity above the captured stock. Max is the
// largest quantity the line may hold.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Max       int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %d: requested %d, only %d available", e.ProductID, e.Requested, e.Max)
}

// LoadError wraps a failure to restore a cart from its slot. It is logged and kept
// on the store; the store itself starts empty.
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load cart %q: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
