package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buildgroup/contactbook"
)

// ContactStore implements contactbook.ContactStore on PostgreSQL. Owner
// scoping is enforced in every WHERE clause, so a foreign contact is
// indistinguishable from a missing one.
type ContactStore struct {
	pool *pgxpool.Pool
}

const contactColumns = `id, owner_id, first_name, last_name, email, birthday, note, created_at, updated_at`

func scanContact(row pgx.Row) (*contactbook.Contact, error) {
	var c contactbook.Contact
	var birthday *time.Time
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &c.Email,
		&birthday, &c.Note, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contactbook.ErrNotFound
		}
		return nil, err
	}
	if birthday != nil {
		c.Birthday = *birthday
	}
	return &c, nil
}

func collectContacts(rows pgx.Rows) ([]contactbook.Contact, error) {
	defer rows.Close()
	out := []contactbook.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *ContactStore) ListByOwner(ctx context.Context, ownerID string, skip, limit int) ([]contactbook.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE owner_id = $1 ORDER BY created_at, id OFFSET $2 LIMIT $3`,
		ownerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return collectContacts(rows)
}

func (s *ContactStore) ListAll(ctx context.Context, skip, limit int) ([]contactbook.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 ORDER BY created_at, id OFFSET $1 LIMIT $2`,
		skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list all contacts: %w", err)
	}
	return collectContacts(rows)
}

func (s *ContactStore) Get(ctx context.Context, ownerID, id string) (*contactbook.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND owner_id = $2`,
		id, ownerID)
	return scanContact(row)
}

func (s *ContactStore) Create(ctx context.Context, c *contactbook.Contact) (*contactbook.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO contacts (owner_id, first_name, last_name, email, birthday, note)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+contactColumns,
		c.OwnerID, c.FirstName, c.LastName, c.Email, nullableDate(c.Birthday), c.Note)
	created, err := scanContact(row)
	if err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	return created, nil
}

func (s *ContactStore) Update(ctx context.Context, c *contactbook.Contact) (*contactbook.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE contacts
		 SET first_name = $1, last_name = $2, email = $3, birthday = $4, note = $5, updated_at = now()
		 WHERE id = $6 AND owner_id = $7
		 RETURNING `+contactColumns,
		c.FirstName, c.LastName, c.Email, nullableDate(c.Birthday), c.Note, c.ID, c.OwnerID)
	return scanContact(row)
}

func (s *ContactStore) Delete(ctx context.Context, ownerID, id string) (*contactbook.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM contacts WHERE id = $1 AND owner_id = $2
		 RETURNING `+contactColumns,
		id, ownerID)
	return scanContact(row)
}

func (s *ContactStore) Search(ctx context.Context, ownerID, query string, skip, limit int) ([]contactbook.Contact, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE owner_id = $1
		   AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
		 ORDER BY created_at, id OFFSET $3 LIMIT $4`,
		ownerID, pattern, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return collectContacts(rows)
}

// UpcomingBirthdays matches on calendar month and day. The window endpoints
// are compared as MMDD strings; when the window crosses a year boundary the
// BETWEEN splits into a disjunction.
func (s *ContactStore) UpcomingBirthdays(ctx context.Context, ownerID string, days int) ([]contactbook.Contact, error) {
	from, to, wraps := birthdayWindow(time.Now(), days)
	cond := `to_char(birthday, 'MMDD') BETWEEN $2 AND $3`
	if wraps {
		cond = `(to_char(birthday, 'MMDD') >= $2 OR to_char(birthday, 'MMDD') <= $3)`
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE owner_id = $1 AND birthday IS NOT NULL AND `+cond+`
		 ORDER BY to_char(birthday, 'MMDD'), id`,
		ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("upcoming birthdays: %w", err)
	}
	return collectContacts(rows)
}

// escapeLike neutralizes LIKE metacharacters so user input only ever
// matches literally. Backslash is the default ESCAPE character.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// birthdayWindow returns the MMDD endpoints of [now, now+days] and whether
// the window crosses the year boundary.
func birthdayWindow(now time.Time, days int) (from, to string, wraps bool) {
	from = now.Format("0102")
	to = now.AddDate(0, 0, days).Format("0102")
	return from, to, from > to
}

// nullableDate maps the zero time onto SQL NULL.
func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
