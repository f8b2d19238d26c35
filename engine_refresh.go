package contactbook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/buildgroup/contactbook/token"
)

// Refresh rotates a session. The presented token must verify with the
// refresh purpose AND match the stored refresh pointer; the swap to the
// next token is a single compare-and-swap in the store, so a stale token
// presented concurrently with a valid rotation can never win.
//
// A signature-valid token that no longer matches the pointer is treated as
// reuse: the pointer is cleared, forcing a fresh login for every holder.
// All failure modes surface as ErrUnauthorized.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	email, err := e.codec.Verify(refreshToken, token.PurposeRefresh)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return TokenPair{}, ErrUnauthorized
	}
	email = strings.ToLower(email)

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricRefreshFailure)
			return TokenPair{}, ErrUnauthorized
		}
		return TokenPair{}, fmt.Errorf("find user: %w", err)
	}

	pair, err := e.issuePair(user.Email)
	if err != nil {
		return TokenPair{}, err
	}

	swapped, err := e.users.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !swapped {
		// Reuse of a superseded token. Clear the pointer so the current
		// holder is logged out too.
		if clearErr := e.users.UpdateRefreshToken(ctx, user.ID, ""); clearErr != nil {
			e.logger.Error("clear refresh pointer failed", "email", user.Email, "err", clearErr)
		}
		e.metricInc(MetricRefreshReuseDetected)
		e.logger.Warn("refresh token reuse detected", "email", user.Email)
		return TokenPair{}, ErrUnauthorized
	}

	e.metricInc(MetricRefreshSuccess)
	return pair, nil
}

// Logout clears the refresh pointer for the bearer of a valid access token
// and drops the cached snapshot. Outstanding access tokens stay valid until
// they expire; only refresh eligibility is revoked.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	email, err := e.codec.Verify(accessToken, token.PurposeAccess)
	if err != nil {
		return ErrUnauthorized
	}
	email = strings.ToLower(email)

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("find user: %w", err)
	}
	if err := e.users.UpdateRefreshToken(ctx, user.ID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	e.cacheInvalidate(ctx, email)
	e.metricInc(MetricLogout)
	return nil
}
