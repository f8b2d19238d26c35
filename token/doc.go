// Package token signs and verifies the compact bearer tokens used by the
// authentication core: short-lived access tokens, long-lived refresh tokens,
// and medium-lived email-confirmation tokens.
//
// Tokens are stateless and self-contained. The purpose claim binds each
// token to exactly one flow; verification always checks the signature before
// trusting any embedded claim.
package token
