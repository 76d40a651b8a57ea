package risk

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAccount = errors.New("invalid account")
	ErrInvalidPlan    = errors.New("invalid plan")
)

// InvalidAccountError reports an account snapshot the engine cannot evaluate.
type InvalidAccountError struct {
	Field string
	Value float64
	Msg   string
}

func (e *InvalidAccountError) Error() string {
	return fmt.Sprintf("invalid account: %s %s (got %v)", e.Field, e.Msg, e.Value)
}

func (e *InvalidAccountError) Is(target error) bool { return target == ErrInvalidAccount }

// InvalidPlanError reports a plan with a missing or non-positive limit.
type InvalidPlanError struct {
	Field string
	Value float64
}

func (e *InvalidPlanError) Error() string {
	return fmt.Sprintf("invalid plan: %s must be positive (got %v)", e.Field, e.Value)
}

func (e *InvalidPlanError) Is(target error) bool { return target == ErrInvalidPlan }
