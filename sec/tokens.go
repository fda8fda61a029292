package sec

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength - HS256 secrets shorter than this are refused
const MinSecretLength = 32

var ErrWeakSecret = fmt.Errorf("api secret must be at least %d bytes", MinSecretLength)

// APIClaims are carried by editor API tokens
type APIClaims struct {
	jwt.RegisteredClaims
}

// GenerateAPIToken signs an HS256 token for sub. ttl 0 means no expiry.
func GenerateAPIToken(secret []byte, iss string, sub string, ttl time.Duration) (string, error) {
	if len(secret) < MinSecretLength {
		return "", ErrWeakSecret
	}
	now := time.Now()
	claims := APIClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:   iss,
		Subject:  sub,
		IssuedAt: jwt.NewNumericDate(now),
	}}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseAPIToken verifies a signed token (string) and returns its claims
func ParseAPIToken(secret []byte, iss string, signedToken string) (*APIClaims, error) {
	claims := &APIClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}
	token, err := jwt.ParseWithClaims(signedToken, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GenerateOpaqueToken generates a Base64-encoded, URL-safe, opaque random string
func GenerateOpaqueToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = 32 // default 32 bytes (256 bits)
	}
	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
