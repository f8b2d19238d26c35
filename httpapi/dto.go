package httpapi

import (
	"time"

	"github.com/buildgroup/contactbook"
	"github.com/buildgroup/contactbook/contacts"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func newTokenResponse(pair contactbook.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	}
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      string    `json:"role"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *contactbook.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Role:      string(u.Role),
		Confirmed: u.Confirmed,
		CreatedAt: u.CreatedAt,
	}
}

type signupResponse struct {
	User   userResponse `json:"user"`
	Detail string       `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type contactRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Birthday  string `json:"birthday"` // YYYY-MM-DD, optional
	Note      string `json:"note"`
}

func (r contactRequest) toInput() (contacts.CreateInput, error) {
	in := contacts.CreateInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Note:      r.Note,
	}
	if r.Birthday != "" {
		day, err := time.Parse("2006-01-02", r.Birthday)
		if err != nil {
			return contacts.CreateInput{}, err
		}
		in.Birthday = day
	}
	return in, nil
}

type contactResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Birthday  string    `json:"birthday,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newContactResponse(c *contactbook.Contact) contactResponse {
	out := contactResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Note:      c.Note,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if !c.Birthday.IsZero() {
		out.Birthday = c.Birthday.Format("2006-01-02")
	}
	return out
}

func newContactListResponse(in []contactbook.Contact) []contactResponse {
	out := make([]contactResponse, 0, len(in))
	for i := range in {
		out = append(out, newContactResponse(&in[i]))
	}
	return out
}
