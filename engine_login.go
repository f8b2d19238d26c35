package contactbook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/buildgroup/contactbook/token"
)

// Login verifies credentials and opens a session. The three rejection modes
// are deliberately distinguishable: ErrInvalidUser for an unknown email,
// ErrEmailNotConfirmed for an unconfirmed account, ErrInvalidPassword for a
// hash mismatch. The password check runs only after the confirmation gate.
//
// On success the refresh pointer is overwritten, which revokes any
// previously issued refresh token for the account.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricLoginFailure)
			return TokenPair{}, ErrInvalidUser
		}
		return TokenPair{}, fmt.Errorf("find user: %w", err)
	}
	if !user.Confirmed {
		e.metricInc(MetricLoginFailure)
		return TokenPair{}, ErrEmailNotConfirmed
	}
	if !e.hasher.Verify(plaintext, user.PasswordHash) {
		e.metricInc(MetricLoginFailure)
		return TokenPair{}, ErrInvalidPassword
	}

	pair, err := e.issuePair(user.Email)
	if err != nil {
		return TokenPair{}, err
	}
	if err := e.users.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	e.cachePut(ctx, user)
	e.metricInc(MetricLoginSuccess)
	e.logger.Info("login", "email", user.Email)
	return pair, nil
}

func (e *Engine) issuePair(email string) (TokenPair, error) {
	access, err := e.codec.Issue(email, token.PurposeAccess, e.config.Token.AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := e.codec.Issue(email, token.PurposeRefresh, e.config.Token.RefreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
