package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Tokens issues and verifies ed25519-signed session JWTs. Keys are generated
// fresh at startup, so tokens do not survive a server restart; players simply
// log in again.
type Tokens struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	ttl  time.Duration
}

// NewTokens generates a key pair and reads the token lifetime from
// TOKEN_EXPIRE_TIME ("never", "0" or empty disables expiry).
func NewTokens() (*Tokens, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	t := &Tokens{priv: priv, pub: pub}

	switch raw := os.Getenv("TOKEN_EXPIRE_TIME"); raw {
	case "", "0", "never":
	default:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse TOKEN_EXPIRE_TIME: %w", err)
		}
		t.ttl = d
	}
	return t, nil
}

// Issue signs a JWT whose subject is the user id.
func (t *Tokens) Issue(userID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{"sub": userID.String()}
	if t.ttl > 0 {
		claims["exp"] = time.Now().Add(t.ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(t.priv)
}

// Verify parses and validates a token, returning the user id it carries.
func (t *Tokens) Verify(tokenString string) (uuid.UUID, error) {
	tok, err := jwt.Parse(tokenString, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.pub, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !tok.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid jwt claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing sub claim")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("sub is not a user id: %w", err)
	}
	return id, nil
}
