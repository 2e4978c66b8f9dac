package auth

import (
	"context"
	"time"
)

// AccountStore describes persistence operations required by the
// authentication engine. Implementations must enforce email uniqueness and
// report conflicts as ErrDuplicateEmail, since a race between an existence
// check and an insert is always possible.
type AccountStore interface {
	// Create persists a new account and assigns its ID.
	Create(ctx context.Context, a *Account) error

	// FindByEmail looks up an account regardless of the active flag.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindActiveByEmail looks up an account with active=true.
	FindActiveByEmail(ctx context.Context, email string) (*Account, error)

	// ExistsByEmail reports whether any account uses the email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateLastAccess stamps the last successful login time.
	UpdateLastAccess(ctx context.Context, email string, at time.Time) error

	// MarkVerified flips the verified flag and clears the verification
	// token for the given account id.
	MarkVerified(ctx context.Context, id int64) error

	// ConsumeVerificationToken verifies the account holding the token and
	// clears it. Returns false when no account holds the token, which
	// makes the token single-use.
	ConsumeVerificationToken(ctx context.Context, token string) (bool, error)
}
