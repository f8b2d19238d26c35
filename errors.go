package contactbook

import "errors"

// Sentinel errors form the outcome taxonomy of the engine. Callers branch
// with errors.Is; the HTTP layer maps each sentinel onto a status code.
var (
	// ErrUnauthorized covers every credential failure that must stay
	// indistinguishable to the caller: bad signature, expired token, wrong
	// purpose, unknown refresh subject, detected refresh reuse.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidUser is returned by Login when no account matches the
	// submitted email.
	ErrInvalidUser = errors.New("invalid user")

	// ErrEmailNotConfirmed is returned by Login when the account exists but
	// its email was never confirmed.
	ErrEmailNotConfirmed = errors.New("email not confirmed")

	// ErrInvalidPassword is returned by Login when the password does not
	// match the stored hash.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrForbidden means the caller is authenticated but its role does not
	// admit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrAccountExists is returned by Signup when the email or username is
	// already taken.
	ErrAccountExists = errors.New("account already exists")

	// ErrNotFound is returned by stores for absent records and by contact
	// operations when the contact does not exist or belongs to another
	// owner.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited maps to 429 at the HTTP surface.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrEngineNotReady is returned by Builder.Build when a required
	// collaborator is missing.
	ErrEngineNotReady = errors.New("engine not initialized")
)
