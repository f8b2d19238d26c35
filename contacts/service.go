package contacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/buildgroup/contactbook"
)

// ErrInvalid marks a contact payload that fails validation.
var ErrInvalid = errors.New("invalid contact")

const (
	defaultLimit    = 100
	maxLimit        = 500
	maxBirthdayDays = 31
)

// Service implements the contact-book operations on top of a ContactStore.
// Every operation except ListAll is scoped to a single owner; the owner ID
// always comes from the authenticated user, never from request input.
type Service struct {
	store  contactbook.ContactStore
	logger *slog.Logger
}

// NewService wires a service over the given store.
func NewService(store contactbook.ContactStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// CreateInput carries the writable fields of a contact.
type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Birthday  time.Time
	Note      string
}

func (in *CreateInput) validate() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	if in.FirstName == "" {
		return fmt.Errorf("%w: first name is required", ErrInvalid)
	}
	return nil
}

func clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}

// Create adds a contact to the owner's book.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*contactbook.Contact, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &contactbook.Contact{
		OwnerID:   ownerID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Birthday:  in.Birthday,
		Note:      in.Note,
	}
	created, err := s.store.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return created, nil
}

// List returns a page of the owner's contacts.
func (s *Service) List(ctx context.Context, ownerID string, skip, limit int) ([]contactbook.Contact, error) {
	skip, limit = clampPage(skip, limit)
	return s.store.ListByOwner(ctx, ownerID, skip, limit)
}

// ListAll returns a page of every owner's contacts. Callers gate this to
// the admin and moderator roles before invoking it.
func (s *Service) ListAll(ctx context.Context, skip, limit int) ([]contactbook.Contact, error) {
	skip, limit = clampPage(skip, limit)
	return s.store.ListAll(ctx, skip, limit)
}

// Get returns one contact. A contact belonging to another owner reads as
// ErrNotFound.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*contactbook.Contact, error) {
	return s.store.Get(ctx, ownerID, id)
}

// Update overwrites the writable fields of an owned contact and returns
// the stored result.
func (s *Service) Update(ctx context.Context, ownerID, id string, in CreateInput) (*contactbook.Contact, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &contactbook.Contact{
		ID:        id,
		OwnerID:   ownerID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Birthday:  in.Birthday,
		Note:      in.Note,
	}
	updated, err := s.store.Update(ctx, c)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an owned contact and returns the deleted record.
func (s *Service) Delete(ctx context.Context, ownerID, id string) (*contactbook.Contact, error) {
	return s.store.Delete(ctx, ownerID, id)
}

// Search finds the owner's contacts whose first name, last name or email
// contains the query, case-insensitively. An empty query returns an empty
// result rather than the whole book.
func (s *Service) Search(ctx context.Context, ownerID, query string, skip, limit int) ([]contactbook.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []contactbook.Contact{}, nil
	}
	skip, limit = clampPage(skip, limit)
	return s.store.Search(ctx, ownerID, query, skip, limit)
}

// UpcomingBirthdays returns the owner's contacts whose birthday falls
// within the next days days, by calendar month and day. The window is
// capped so a year-spanning request cannot degenerate into a full scan.
func (s *Service) UpcomingBirthdays(ctx context.Context, ownerID string, days int) ([]contactbook.Contact, error) {
	if days <= 0 {
		days = 7
	}
	if days > maxBirthdayDays {
		days = maxBirthdayDays
	}
	return s.store.UpcomingBirthdays(ctx, ownerID, days)
}
