package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every reason a bearer token is rejected at parse time.
var ErrInvalidToken = errors.New("invalid token")

// Claims identify the personal access token row a JWT was issued for.
type Claims struct {
	TokenID   int64
	UserID    int64
	Abilities []string
	IssuedAt  time.Time
	// ExpiresAt is zero for tokens without expiry.
	ExpiresAt time.Time
}

type jwtClaims struct {
	Abilities []string `json:"abilities,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager. A ttl of zero issues tokens without an exp claim.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// TTL is the lifetime applied to newly issued tokens.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue signs a token for the token row tokenID owned by userID.
func (m *TokenManager) Issue(userID, tokenID int64, abilities []string) (string, Claims, error) {
	if len(m.secret) == 0 {
		return "", Claims{}, errors.New("jwt secret not configured")
	}
	now := m.now().UTC().Truncate(time.Second)

	cl := jwtClaims{
		Abilities: abilities,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   m.issuer,
			Subject:  strconv.FormatInt(userID, 10),
			ID:       strconv.FormatInt(tokenID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	out := Claims{TokenID: tokenID, UserID: userID, Abilities: abilities, IssuedAt: now}
	if m.ttl > 0 {
		cl.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
		out.ExpiresAt = cl.ExpiresAt.Time
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(m.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, out, nil
}

// Parse validates signature, issuer and expiry and returns the embedded ids.
func (m *TokenManager) Parse(raw string) (Claims, error) {
	var cl jwtClaims
	_, err := jwt.ParseWithClaims(raw, &cl, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(cl.Subject, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: subject %q", ErrInvalidToken, cl.Subject)
	}
	tokenID, err := strconv.ParseInt(cl.ID, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: jti %q", ErrInvalidToken, cl.ID)
	}

	out := Claims{TokenID: tokenID, UserID: userID, Abilities: cl.Abilities}
	if cl.IssuedAt != nil {
		out.IssuedAt = cl.IssuedAt.Time
	}
	if cl.ExpiresAt != nil {
		out.ExpiresAt = cl.ExpiresAt.Time
	}
	return out, nil
}
