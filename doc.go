// Package contactbook is the authentication and session core of the
// contact-book service: argon2id password hashing, signed dual-token
// sessions with single-use refresh rotation, email confirmation, an
// advisory Redis user cache and a fixed-window rate limiter.
//
// [Engine] is the public surface, assembled once through [Builder.Build];
// its methods are safe for concurrent use. Persistence and mail delivery
// stay behind the [UserStore], [ContactStore] and [Mailer] interfaces, so
// the engine never knows which database or SMTP relay sits behind them.
//
// The cache is advisory: every authenticated read must work, just slower,
// when Redis is empty or down. The refresh pointer in persistence is the
// single source of truth for session validity.
package contactbook
