package matching

import (
	mcerrors "github.com/tradsys/matchcore/pkg/errors"
)

// Validate rejects malformed or duplicate orders. No other checks are
// performed here: non-empty order_id and symbol matching are the command
// source's responsibility, not the core's.
func Validate(book *Book, o Order) error {
	if !o.Price.IsPositive() {
		return mcerrors.Newf(mcerrors.ErrInvalidOrder, "price must be positive, got %s", o.Price.String())
	}
	if o.Units <= 0 {
		return mcerrors.Newf(mcerrors.ErrInvalidOrder, "units must be positive, got %d", o.Units)
	}
	if book.Seen(o.OrderID) {
		return mcerrors.Newf(mcerrors.ErrDuplicateOrder, "order_id %q already seen", o.OrderID)
	}
	return nil
}
