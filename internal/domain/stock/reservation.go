// Package stock holds the contracts for reserving product stock against orders.
package stock

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrStockUnavailable is returned when a product cannot cover the requested quantity
var ErrStockUnavailable = shared.NewDomainError("STOCK_UNAVAILABLE", "Insufficient stock for the requested item")

// NewUnavailableError names the offending product
func NewUnavailableError(productID uuid.UUID, requested, available int) *shared.DomainError {
	return &shared.DomainError{
		Code:    ErrStockUnavailable.Code,
		Message: fmt.Sprintf("Insufficient stock for product %s: requested %d, available %d", productID, requested, available),
		Details: map[string]any{
			"product_id": productID.String(),
			"requested":  requested,
			"available":  available,
		},
	}
}

// UnavailableProductID extracts the offending product from a STOCK_UNAVAILABLE error
func UnavailableProductID(err error) (uuid.UUID, bool) {
	de, ok := shared.AsDomainError(err)
	if !ok || de.Code != ErrStockUnavailable.Code {
		return uuid.Nil, false
	}
	raw, ok := de.Details["product_id"].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ReservationLine is one product/quantity pair of a reservation batch
type ReservationLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// Consolidate merges lines for the same product and orders them by product ID.
// A stable lock order keeps concurrent batches from deadlocking each other.
func Consolidate(lines []ReservationLine) []ReservationLine {
	totals := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		totals[l.ProductID] += l.Quantity
	}

	out := make([]ReservationLine, 0, len(totals))
	for id, qty := range totals {
		out = append(out, ReservationLine{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ProductID[:], out[j].ProductID[:]) < 0
	})
	return out
}

// Validate rejects empty batches and non-positive quantities
func Validate(lines []ReservationLine) error {
	if len(lines) == 0 {
		return shared.NewDomainError("EMPTY_RESERVATION", "Reservation batch is empty")
	}
	for _, l := range lines {
		if l.ProductID == uuid.Nil {
			return shared.NewDomainError("INVALID_PRODUCT", "Reservation line requires a product")
		}
		if l.Quantity <= 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "Reservation quantity must be positive")
		}
	}
	return nil
}

// Reserver decrements and restores stock counters. Reserve is all-or-nothing:
// when any line fails no decrement from the batch survives.
type Reserver interface {
	Reserve(ctx context.Context, storeID uuid.UUID, lines []ReservationLine) error
	Release(ctx context.Context, storeID uuid.UUID, lines []ReservationLine) error
}

// Level is the current stock counter of a product in a store
type Level struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	OnHand    int
}
