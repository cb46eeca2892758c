package auth

import (
	"context"

	"github.com/mmynk/messbill/internal/models"
)

// Registration is the data needed to create a member account.
type Registration struct {
	Email      string
	FullName   string
	Department string
	Credential string
	Roles      []string
}

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new member account.
	// The credential format depends on the implementation (e.g., password, OAuth token, etc.)
	Register(ctx context.Context, reg Registration) (*models.Member, error)

	// Authenticate verifies the member's credentials and returns the member if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.Member, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
