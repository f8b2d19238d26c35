package contactbook

import (
	"context"
	"fmt"
	"time"
)

// Role is the closed authorization role attached to every user. It is used
// only for read-path gating of cross-tenant routes.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// ParseRole maps a stored string onto the closed enum.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleModerator, RoleUser:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether the role is one of the closed enum values.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// User is the account record. Email is the unique immutable identity;
// RefreshToken mirrors the single currently-valid refresh token (the
// refresh pointer) and is empty when no session is refresh-eligible.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Avatar       string
	Role         Role
	Confirmed    bool
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contact is a single entry in a user's private contact list. OwnerID is an
// explicit foreign key; there is no implicit relationship traversal.
type Contact struct {
	ID        string
	OwnerID   string
	FirstName string
	LastName  string
	Email     string
	Birthday  time.Time
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenPair is the dual-token session credential returned by login and
// refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SignupInput carries the fields of a registration request. Password is
// plaintext here and only here; it is hashed before anything is persisted.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// CreateUserInput is handed to the UserStore by Signup.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
	Role         Role
}

// UserStore is the persistence collaborator for accounts. Implementations
// return ErrNotFound for absent users and ErrAccountExists for duplicate
// identities; absence is an expected outcome, not a failure.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// UpdateRefreshToken overwrites the refresh pointer. An empty token
	// clears it.
	UpdateRefreshToken(ctx context.Context, userID, token string) error

	// RotateRefreshToken atomically replaces the refresh pointer only if it
	// still equals current. It reports false when the pointer changed
	// underneath the caller. The compare-and-swap must be a single
	// statement so concurrent rotations with the same stale token yield at
	// most one success.
	RotateRefreshToken(ctx context.Context, userID, current, next string) (bool, error)

	// SetConfirmed marks the account's email as confirmed. Confirming an
	// already-confirmed account is a no-op.
	SetConfirmed(ctx context.Context, email string) error
}

// ContactStore is the persistence collaborator for contacts. Every
// operation except ListAll is scoped to an owner; a contact that exists but
// belongs to someone else reads as ErrNotFound.
type ContactStore interface {
	ListByOwner(ctx context.Context, ownerID string, skip, limit int) ([]Contact, error)
	ListAll(ctx context.Context, skip, limit int) ([]Contact, error)
	Get(ctx context.Context, ownerID, id string) (*Contact, error)
	Create(ctx context.Context, contact *Contact) (*Contact, error)
	Update(ctx context.Context, contact *Contact) (*Contact, error)
	Delete(ctx context.Context, ownerID, id string) (*Contact, error)
	Search(ctx context.Context, ownerID, query string, skip, limit int) ([]Contact, error)
	UpcomingBirthdays(ctx context.Context, ownerID string, days int) ([]Contact, error)
}

// Mailer delivers the confirmation mail. Implementations are expected to be
// asynchronous and fire-and-forget: a delivery failure is logged by the
// implementation and never fails the request that triggered it.
type Mailer interface {
	SendConfirmation(ctx context.Context, email, username, confirmToken string) error
}
