// Package session resolves request credentials into user sessions, fronting
// the identity provider with a fixed-TTL in-memory cache.
package session

// UserSummary is the subset of user identity carried on a resolved session.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Record is a resolved session. User is nil for anonymous or unresolved
// credentials; only records with a non-nil User are ever cached.
type Record struct {
	Token string
	User  *UserSummary
}

// Anonymous reports whether the record carries no user identity.
func (r Record) Anonymous() bool {
	return r.User == nil
}
