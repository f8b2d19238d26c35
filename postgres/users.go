package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buildgroup/contactbook"
)

// UserStore implements contactbook.UserStore on PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

const userColumns = `id, username, email, password_hash, avatar, role, confirmed, refresh_token, created_at, updated_at`

func scanUser(row pgx.Row) (*contactbook.User, error) {
	var u contactbook.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Avatar,
		&u.Role, &u.Confirmed, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contactbook.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// isUniqueViolation reports a duplicate key error (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*contactbook.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*contactbook.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *UserStore) Create(ctx context.Context, in contactbook.CreateUserInput) (*contactbook.User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		in.Username, in.Email, in.PasswordHash, string(in.Role))
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, contactbook.ErrAccountExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateRefreshToken(ctx context.Context, userID, token string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $1, updated_at = now() WHERE id = $2`,
		token, userID)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contactbook.ErrNotFound
	}
	return nil
}

// RotateRefreshToken is a single-statement compare-and-swap on the refresh
// pointer. Row-level locking makes concurrent rotations with the same
// current token serialize; exactly one sees RowsAffected == 1.
func (s *UserStore) RotateRefreshToken(ctx context.Context, userID, current, next string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $1, updated_at = now()
		 WHERE id = $2 AND refresh_token = $3`,
		next, userID, current)
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *UserStore) SetConfirmed(ctx context.Context, email string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET confirmed = true, updated_at = now() WHERE email = $1`,
		email)
	if err != nil {
		return fmt.Errorf("set confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contactbook.ErrNotFound
	}
	return nil
}
