package billing

import (
	"errors"
	"fmt"

	"github.com/mmynk/messbill/internal/storage"
)

var (
	// ErrNoBillableRole means the role that selects billable members does not exist.
	ErrNoBillableRole = errors.New("billable role does not exist")

	ErrAlreadyPaid   = storage.ErrAlreadyPaid
	ErrOverpayment   = storage.ErrOverpayment
	ErrInvalidAmount = errors.New("payment amount must be positive")
)

// ConfigurationError aborts a generation run before any bill is written.
// It matches ErrNoBillableRole with errors.Is.
type ConfigurationError struct {
	Role string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("billing configuration: role %q: %v", e.Role, ErrNoBillableRole)
}

func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrNoBillableRole, e.Err}
}
