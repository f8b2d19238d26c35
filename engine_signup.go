package contactbook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/buildgroup/contactbook/token"
)

// Signup registers a new account. The password is hashed before anything is
// persisted; the plaintext is never stored or logged. New accounts start
// with RoleUser and an unconfirmed email, and a confirmation mail is
// dispatched fire-and-forget: a mail failure never fails the signup.
//
// A duplicate email or username returns ErrAccountExists.
func (e *Engine) Signup(ctx context.Context, input SignupInput) (*User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidUser)
	}

	hash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := e.users.Create(ctx, CreateUserInput{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         RoleUser,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricSignupDuplicate)
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	e.metricInc(MetricSignupSuccess)
	e.sendConfirmation(ctx, user)
	return user, nil
}

// sendConfirmation issues a confirmation token and hands it to the mailer.
// Failures are logged, never returned; the account can always re-request.
func (e *Engine) sendConfirmation(ctx context.Context, u *User) {
	confirm, err := e.codec.Issue(u.Email, token.PurposeEmailConfirm, e.config.Token.ConfirmTTL)
	if err != nil {
		e.logger.Error("issue confirmation token failed", "email", u.Email, "err", err)
		return
	}
	if e.mailer == nil {
		e.logger.Warn("no mailer configured, confirmation not sent", "email", u.Email)
		return
	}
	if err := e.mailer.SendConfirmation(ctx, u.Email, u.Username, confirm); err != nil {
		e.logger.Error("confirmation mail failed", "email", u.Email, "err", err)
	}
}
