package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidState indicates the entity cannot make the requested transition.
	ErrInvalidState = errors.New("invalid state")
)

// StockRejectedError is returned by the order store when live stock cannot cover
// an order line at submission time.
type StockRejectedError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *StockRejectedError) Error() string {
	return fmt.Sprintf("product %d: requested %d, %d in stock", e.ProductID, e.Requested, e.Available)
}
