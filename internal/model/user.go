package model

import (
	"time"

	"github.com/guregu/null/v5"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccessToken is a named, revocable API credential issued to a user.
type AccessToken struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"-"`
	Name       string    `json:"name"`
	Abilities  []string  `json:"abilities"`
	LastUsedAt null.Time `json:"last_used_at"`
	ExpiresAt  null.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Can reports whether the token grants ability. "*" grants everything.
func (t AccessToken) Can(ability string) bool {
	for _, a := range t.Abilities {
		if a == "*" || a == ability {
			return true
		}
	}
	return false
}
