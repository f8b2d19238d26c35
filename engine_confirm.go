package contactbook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/buildgroup/contactbook/token"
)

// RequestConfirmation re-sends the confirmation mail. It never discloses
// whether the email is registered: an unknown address and an
// already-confirmed account both return nil so the endpoint cannot be used
// for enumeration.
func (e *Engine) RequestConfirmation(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.logger.Info("confirmation requested for unknown email", "email", email)
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}
	if user.Confirmed {
		return nil
	}

	e.metricInc(MetricConfirmationRequested)
	e.sendConfirmation(ctx, user)
	return nil
}

// ConfirmEmail validates a confirmation token and marks the account
// confirmed. Confirming twice is a no-op; a bad, expired or wrong-purpose
// token returns ErrUnauthorized.
func (e *Engine) ConfirmEmail(ctx context.Context, confirmToken string) error {
	email, err := e.codec.Verify(confirmToken, token.PurposeEmailConfirm)
	if err != nil {
		e.metricInc(MetricConfirmFailure)
		return ErrUnauthorized
	}
	email = strings.ToLower(email)

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricConfirmFailure)
			return ErrUnauthorized
		}
		return fmt.Errorf("find user: %w", err)
	}
	if user.Confirmed {
		return nil
	}

	if err := e.users.SetConfirmed(ctx, email); err != nil {
		return fmt.Errorf("set confirmed: %w", err)
	}
	e.cacheInvalidate(ctx, email)
	e.metricInc(MetricConfirmSuccess)
	e.logger.Info("email confirmed", "email", email)
	return nil
}
