package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid is returned for any token that fails parsing, signature
// verification, or claim validation.
var ErrTokenInvalid = errors.New("auth: invalid token")

// Claims is the set of fields displayd signs into a session token.
type Claims struct {
	jwt.RegisteredClaims
	User string `json:"user"`
}

// TokenIssuer signs and verifies session tokens with a single HMAC key. The
// key is generated once per process unless an operator supplies one through
// config, so tokens do not survive a restart — a restart already owes
// callers a fresh login since in-memory SessionStore state is gone too.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

// NewTokenIssuer wires an issuer to a signing key and token lifetime. A nil
// or empty key is replaced with a randomly generated one.
func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	if len(key) == 0 {
		key = randomKey()
	}
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	return &TokenIssuer{key: key, ttl: ttl}
}

func randomKey() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("auth: failed to generate signing key: %v", err))
	}
	return b
}

// Issue mints a signed token for the given user, with a fresh jti so each
// token can be told apart from any other issued for the same user and
// individually revoked through a SessionStore.
func (i *TokenIssuer) Issue(user string) (token string, jti string, err error) {
	now := time.Now()
	jti = uuid.NewString()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		User: user,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return signed, jti, nil
}

// TTL reports the lifetime new tokens are issued with.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Verify parses and validates a token, returning the user it was issued to
// and its jti so callers can cross-check a revocation list.
func (i *TokenIssuer) Verify(raw string) (user string, jti string, err error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method", ErrTokenInvalid)
		}
		return i.key, nil
	})
	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.User == "" {
		return "", "", ErrTokenInvalid
	}
	return claims.User, claims.ID, nil
}

// EncodeSigningKey renders a signing key for storage in a config file.
func EncodeSigningKey(key []byte) string {
	return base64.RawStdEncoding.EncodeToString(key)
}

// DecodeSigningKey parses a signing key previously rendered by
// EncodeSigningKey.
func DecodeSigningKey(encoded string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(encoded)
}
