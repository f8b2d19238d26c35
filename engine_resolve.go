package contactbook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/buildgroup/contactbook/token"
)

// ResolveUser authenticates a bearer access token and returns the account
// behind it. The cache is consulted first; on a miss or cache outage the
// user is loaded from persistence and the snapshot rewritten. Cache
// failures degrade to a persistence read, never to a request failure.
//
// The returned user never carries the password hash or refresh pointer
// when served from cache.
func (e *Engine) ResolveUser(ctx context.Context, accessToken string) (*User, error) {
	email, err := e.codec.Verify(accessToken, token.PurposeAccess)
	if err != nil {
		return nil, ErrUnauthorized
	}
	email = strings.ToLower(email)

	if snap, cErr := e.cache.Get(ctx, email); cErr == nil {
		e.metricInc(MetricCacheHit)
		return userFromSnapshot(snap), nil
	}
	e.metricInc(MetricCacheMiss)

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Valid signature over a deleted account.
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	e.cachePut(ctx, user)
	return user, nil
}
