package service

import (
	"errors"
	"fmt"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

var (
	ErrStockExceeded   = errors.New("requested amount exceeds available stock")
	ErrOperationFailed = errors.New("cart operation failed")
	ErrInvalidProduct  = errors.New("invalid product id")
	ErrInvalidAmount   = errors.New("amount must be at least 1")
)

// OperationError wraps whatever made an operation fail. It matches
// ErrOperationFailed under errors.Is and unwraps to the cause.
type OperationError struct {
	Op  domain.Operation
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func (e *OperationError) Is(target error) bool {
	return target == ErrOperationFailed
}

func failed(op domain.Operation, err error) (domain.Outcome, error) {
	return domain.OutcomeFailed, &OperationError{Op: op, Err: err}
}
