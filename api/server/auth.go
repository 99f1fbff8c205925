package server

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --------------------------------------------------------------------------
// Tokens
// --------------------------------------------------------------------------

// tokenIssuer signs and verifies HS256 tokens whose subject is a user id.
// A verified token is only accepted if it is also the current token stored
// on that user, so issuing a new token revokes the previous one.
type tokenIssuer struct {
	secret []byte
	parser *jwt.Parser
}

func newTokenIssuer(secret []byte) *tokenIssuer {
	return &tokenIssuer{
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Issue creates a new token for userID.
func (t *tokenIssuer) Issue(userID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		ID:       uuid.NewString(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify checks the signature of token and returns its subject.
func (t *tokenIssuer) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := t.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// tokenFromHeader extracts the token of an "Authorization: Token <jwt>"
// header. It returns an empty string for any other scheme.
func tokenFromHeader(header string) string {
	const prefix = "Token "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// --------------------------------------------------------------------------
// Passwords
// --------------------------------------------------------------------------

// prehash maps a password of any length to a fixed size input, bcrypt only
// considers the first 72 bytes.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// hashPassword returns the bcrypt hash of password.
func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// checkPassword reports whether password matches hash.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(password)) == nil
}
