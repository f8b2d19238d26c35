package contactbook

// Authorize reports whether the user's role is one of the allowed roles.
// It returns ErrForbidden otherwise; authentication is assumed to have
// happened already. An empty allow list admits no one.
func Authorize(u *User, allowed ...Role) error {
	if u == nil {
		return ErrForbidden
	}
	for _, r := range allowed {
		if u.Role == r {
			return nil
		}
	}
	return ErrForbidden
}
