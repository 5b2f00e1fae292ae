// Package auth provides password hashing and session tokens for the thin
// login layer. The rules engine never sees any of this; handlers resolve a
// token to a user id before calling in.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash indicates a stored password hash in an unknown format.
var ErrInvalidHash = errors.New("the encoded hash is not in the correct format")

// argon2id parameters baked into every new hash. Old hashes carry their own
// parameters in the encoded string, so these can change without breaking
// existing passwords.
const (
	hashMemory      = 64 * 1024
	hashIterations  = 3
	hashParallelism = 2
	saltLength      = 16
	keyLength       = 32
)

// HashPassword derives an argon2id hash encoded with its version, parameters
// and salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, hashIterations, hashMemory, hashParallelism, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, hashMemory, hashIterations, hashParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword reports whether password matches the encoded hash, in
// constant time over the derived keys.
func VerifyPassword(password, encoded string) (bool, error) {
	vals := strings.Split(encoded, "$")
	if len(vals) != 6 || vals[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(vals[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}
	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(vals[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return false, ErrInvalidHash
	}
	salt, err := base64.RawStdEncoding.Strict().DecodeString(vals[4])
	if err != nil {
		return false, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.Strict().DecodeString(vals[5])
	if err != nil {
		return false, ErrInvalidHash
	}

	derived := argon2.IDKey([]byte(password), salt, iters, mem, par, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, derived) == 1, nil
}
