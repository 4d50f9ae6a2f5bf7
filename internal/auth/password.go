// Package auth holds credential primitives: password hashing and bearer token signing.
package auth

import (
	"errors"

	"github.com/alexedwards/argon2id"
)

// Hasher hashes passwords into the encoded $argon2id$ format stored in users.password_hash.
type Hasher struct {
	params *argon2id.Params
}

func NewHasher() *Hasher {
	return &Hasher{params: argon2id.DefaultParams}
}

func NewHasherWithParams(p *argon2id.Params) *Hasher { return &Hasher{params: p} }

func (h *Hasher) Hash(plain string) (string, error) {
	if h == nil || h.params == nil {
		return "", errors.New("argon2id params not set")
	}
	return argon2id.CreateHash(plain, h.params)
}

// Verify reports whether plain matches encodedHash. A malformed hash is an error.
func (h *Hasher) Verify(plain, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(plain, encodedHash)
}
