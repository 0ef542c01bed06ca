package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"careline/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Issuer is the iss claim on every session token.
	Issuer = "careline-api"
	// Audience is the aud claim on every session token.
	Audience = "careline-client"
	// SessionTTL bounds how long a session token is accepted.
	SessionTTL = 7 * 24 * time.Hour
)

// Claims are the verified contents of a session token.
type Claims struct {
	AccountID uint
	Username  string
	Role      models.Role
	JTI       string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer returns an issuer bound to the shared secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// Issue creates a signed token for the account.
func (t *TokenIssuer) Issue(account *models.Account) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}

	now := t.now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(account.ID), 10),
		"username": account.Username,
		"role":     string(account.Role),
		"iss":      Issuer,
		"aud":      Audience,
		"exp":      now.Add(SessionTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates the signature, issuer, audience and expiry of a token.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	sub, err := mc.GetSubject()
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}

	claims := &Claims{AccountID: uint(id)}
	claims.Username, _ = mc["username"].(string)
	if role, ok := mc["role"].(string); ok {
		claims.Role = models.Role(role)
	}
	claims.JTI, _ = mc["jti"].(string)
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
