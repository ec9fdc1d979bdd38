package entity

import "time"

// Account represents a registered user, optionally flagged as an author. An
// account is created unverified and flips to verified exactly once, when its
// verification token is confirmed before expiry.
type Account struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	IsAuthor     bool   `json:"isAuthor"`
	Verified     bool   `json:"verified"`
	// VerifyToken is matched by exact value on the verification endpoint.
	VerifyToken          *string    `json:"-"`
	VerifyTokenExpiresAt *time.Time `json:"-"`
	// SessionToken records the last issued login credential for reference
	// only; it is never consulted for auth decisions.
	SessionToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LoginView is the account subset returned with a fresh credential.
type LoginView struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	IsAuthor  bool      `json:"isAuthor"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
