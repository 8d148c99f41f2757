package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"freelance/internal/ids"
)

var ErrInvalidToken = errors.New("invalid token")

const TokenTypeBearer = "bearer"

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Subject is the identity a token asserts. Name is the username and goes
// into the registered "sub" claim.
type Subject struct {
	Name   string
	UserID int64
	Role   string
}

type Claims struct {
	UserID int64     `json:"uid"`
	Role   string    `json:"role"`
	Kind   TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

type Token struct {
	Value     string
	ExpiresAt time.Time
}

type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	clone := *i
	clone.now = now
	return &clone
}

func (i *TokenIssuer) IssueAccess(subject Subject) (Token, error) {
	return i.issue(subject, TokenKindAccess, i.accessTTL)
}

func (i *TokenIssuer) IssueRefresh(subject Subject) (Token, error) {
	return i.issue(subject, TokenKindRefresh, i.refreshTTL)
}

func (i *TokenIssuer) issue(subject Subject, kind TokenKind, ttl time.Duration) (Token, error) {
	if subject.Name == "" {
		return Token{}, errors.New("token subject required")
	}

	now := i.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		UserID: subject.UserID,
		Role:   subject.Role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        ids.New(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign jwt: %w", err)
	}

	// NumericDate has second precision; report what the token actually says.
	return Token{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), now: time.Now}
}

func (v *TokenVerifier) WithClock(now func() time.Time) *TokenVerifier {
	clone := *v
	clone.now = now
	return &clone
}

// Verify checks signature, algorithm and expiry. Any failure yields
// ErrInvalidToken with no claims.
func (v *TokenVerifier) Verify(tokenStr string) (Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}

// VerifyAccess additionally rejects refresh tokens presented as bearer tokens.
func (v *TokenVerifier) VerifyAccess(tokenStr string) (Claims, error) {
	claims, err := v.Verify(tokenStr)
	if err != nil {
		return Claims{}, err
	}
	if claims.Kind != TokenKindAccess {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// HashRefreshToken is the lookup key persisted for a refresh token, so the
// bearer string itself never sits in the database.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
