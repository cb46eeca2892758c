package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/messbill/internal/attendance"
	"github.com/mmynk/messbill/internal/auth"
	"github.com/mmynk/messbill/internal/billing"
	"github.com/mmynk/messbill/internal/issues"
	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/rates"
	"github.com/mmynk/messbill/internal/storage"
)

// toConnectError maps domain errors to Connect codes. Unknown errors are
// logged and reported as Internal.
func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	code := connect.CodeInternal
	switch {
	case errors.Is(err, models.ErrInvalidPeriod),
		errors.Is(err, billing.ErrInvalidAmount),
		errors.Is(err, rates.ErrInvalidRate),
		errors.Is(err, rates.ErrUnknownKey),
		errors.Is(err, issues.ErrInvalidDescription),
		errors.Is(err, auth.ErrWeakPassword):
		code = connect.CodeInvalidArgument
	case errors.Is(err, storage.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, storage.ErrDuplicateBill),
		errors.Is(err, storage.ErrEmailExists):
		code = connect.CodeAlreadyExists
	case errors.Is(err, billing.ErrNoBillableRole),
		errors.Is(err, storage.ErrRoleNotFound),
		errors.Is(err, billing.ErrAlreadyPaid),
		errors.Is(err, billing.ErrOverpayment),
		errors.Is(err, attendance.ErrCutoffPassed):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, attendance.ErrNotOwner),
		errors.Is(err, attendance.ErrForbidden),
		errors.Is(err, issues.ErrNotBillOwner):
		code = connect.CodePermissionDenied
	case errors.Is(err, auth.ErrInvalidCredentials):
		code = connect.CodeUnauthenticated
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}

	if code == connect.CodeInternal {
		slog.Error("Unhandled service error", "error", err)
	}
	return connect.NewError(code, err)
}
