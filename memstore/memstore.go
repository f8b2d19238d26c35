// Package memstore provides in-memory implementations of the persistence
// interfaces. They back the test suites and local development runs; they
// mirror the PostgreSQL adapter's semantics, including owner scoping and
// the refresh-pointer compare-and-swap.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buildgroup/contactbook"
)

// UserStore is a map-backed contactbook.UserStore.
type UserStore struct {
	mu    sync.Mutex
	users map[string]*contactbook.User // keyed by email
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: map[string]*contactbook.User{}}
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*contactbook.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, contactbook.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) FindByID(_ context.Context, id string) (*contactbook.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, contactbook.ErrNotFound
}

func (s *UserStore) Create(_ context.Context, in contactbook.CreateUserInput) (*contactbook.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[in.Email]; ok {
		return nil, contactbook.ErrAccountExists
	}
	for _, u := range s.users {
		if u.Username == in.Username {
			return nil, contactbook.ErrAccountExists
		}
	}
	now := time.Now().UTC()
	u := &contactbook.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[in.Email] = u
	cp := *u
	return &cp, nil
}

func (s *UserStore) UpdateRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			u.RefreshToken = token
			u.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return contactbook.ErrNotFound
}

func (s *UserStore) RotateRefreshToken(_ context.Context, userID, current, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			if u.RefreshToken != current {
				return false, nil
			}
			u.RefreshToken = next
			u.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

func (s *UserStore) SetConfirmed(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return contactbook.ErrNotFound
	}
	u.Confirmed = true
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// SetRole overwrites the role of an existing user. Test fixture hook; the
// HTTP surface has no role management.
func (s *UserStore) SetRole(email string, role contactbook.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return contactbook.ErrNotFound
	}
	u.Role = role
	return nil
}

// ContactStore is a slice-backed contactbook.ContactStore.
type ContactStore struct {
	mu       sync.Mutex
	contacts []contactbook.Contact

	// Now supplies the clock for UpcomingBirthdays. Defaults to time.Now.
	Now func() time.Time
}

// NewContactStore returns an empty store.
func NewContactStore() *ContactStore {
	return &ContactStore{}
}

func (s *ContactStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ContactStore) ListByOwner(_ context.Context, ownerID string, skip, limit int) ([]contactbook.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []contactbook.Contact{}
	for _, c := range s.contacts {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return page(out, skip, limit), nil
}

func (s *ContactStore) ListAll(_ context.Context, skip, limit int) ([]contactbook.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(append([]contactbook.Contact{}, s.contacts...), skip, limit), nil
}

func (s *ContactStore) Get(_ context.Context, ownerID, id string) (*contactbook.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.contacts {
		if c.ID == id && c.OwnerID == ownerID {
			cp := c
			return &cp, nil
		}
	}
	return nil, contactbook.ErrNotFound
}

func (s *ContactStore) Create(_ context.Context, c *contactbook.Contact) (*contactbook.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	cp := *c
	cp.ID = uuid.NewString()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.contacts = append(s.contacts, cp)
	out := cp
	return &out, nil
}

func (s *ContactStore) Update(_ context.Context, c *contactbook.Contact) (*contactbook.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.contacts {
		if s.contacts[i].ID == c.ID && s.contacts[i].OwnerID == c.OwnerID {
			cp := *c
			cp.CreatedAt = s.contacts[i].CreatedAt
			cp.UpdatedAt = time.Now().UTC()
			s.contacts[i] = cp
			out := cp
			return &out, nil
		}
	}
	return nil, contactbook.ErrNotFound
}

func (s *ContactStore) Delete(_ context.Context, ownerID, id string) (*contactbook.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.contacts {
		if c.ID == id && c.OwnerID == ownerID {
			s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
			cp := c
			return &cp, nil
		}
	}
	return nil, contactbook.ErrNotFound
}

func (s *ContactStore) Search(_ context.Context, ownerID, query string, skip, limit int) ([]contactbook.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(query)
	out := []contactbook.Contact{}
	for _, c := range s.contacts {
		if c.OwnerID != ownerID {
			continue
		}
		if strings.Contains(strings.ToLower(c.FirstName), q) ||
			strings.Contains(strings.ToLower(c.LastName), q) ||
			strings.Contains(strings.ToLower(c.Email), q) {
			out = append(out, c)
		}
	}
	return page(out, skip, limit), nil
}

func (s *ContactStore) UpcomingBirthdays(_ context.Context, ownerID string, days int) ([]contactbook.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := []contactbook.Contact{}
	for _, c := range s.contacts {
		if c.OwnerID != ownerID || c.Birthday.IsZero() {
			continue
		}
		for d := 0; d <= days; d++ {
			day := now.AddDate(0, 0, d)
			if c.Birthday.Month() == day.Month() && c.Birthday.Day() == day.Day() {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func page(in []contactbook.Contact, skip, limit int) []contactbook.Contact {
	if skip >= len(in) {
		return []contactbook.Contact{}
	}
	in = in[skip:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
