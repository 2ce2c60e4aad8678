package purchase

import (
	"errors"
	"fmt"
)

// Kind classifies a purchase failure. The set is closed; the HTTP boundary
// matches it exhaustively when mapping failures to status codes.
type Kind string

const (
	// KindUserNotFound means no user row exists for the given id.
	KindUserNotFound Kind = "user_not_found"

	// KindProductNotFound means no product row exists for the given id.
	KindProductNotFound Kind = "product_not_found"

	// KindInsufficientFunds means the balance does not cover the price.
	KindInsufficientFunds Kind = "insufficient_funds"

	// KindInvalidPrice means the product price is not positive.
	KindInvalidPrice Kind = "invalid_price"

	// KindInvalidData means a stored numeric field is corrupt, the balance
	// was already negative, or a concurrent change invalidated the update.
	KindInvalidData Kind = "invalid_data"
)

// Error is a classified purchase failure. Any Error aborts the purchase
// transaction; no partial state is persisted.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("purchase %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("purchase %s: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err, or "" when err is not a
// purchase failure.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func failure(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func failureWrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
