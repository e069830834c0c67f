// Package services holds the cart aggregator, the order builder and the
// catalog rules that sit between the HTTP handlers and storage.
package services

import (
	"errors"

	"github.com/yemenmarket/marketplace-api/storage"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
)

// IsClientError reports whether err is caused by the request rather than by
// the server.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidArgument, ErrEmptyCart, ErrInsufficientStock, ErrInvalidTransition,
		ErrForbidden, storage.ErrNotFound, storage.ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
