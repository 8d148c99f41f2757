package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores input past 72 bytes; reject rather than silently truncate.
	MaxPasswordLength = 72
)

var ErrWeakPassword = errors.New("password must be 8-72 characters and contain an uppercase letter, a lowercase letter and a digit")

// PasswordHasher hashes with a random embedded salt. Verify fails closed:
// a malformed stored hash reports false, never an error.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encodedHash string) bool
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return ErrWeakPassword
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}

type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{Cost: cost}
}

func (h BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

func (h BcryptHasher) Verify(password string, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}

type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

var DefaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

const argon2Prefix = "$argon2id$"

type Argon2Hasher struct {
	Params Argon2Params
}

func NewArgon2Hasher(params Argon2Params) Argon2Hasher {
	return Argon2Hasher{Params: params}
}

func (h Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.Params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.Params.Time, h.Params.Memory, h.Params.Threads, h.Params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.Params.Memory, h.Params.Time, h.Params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h Argon2Hasher) Verify(password string, encodedHash string) bool {
	params, salt, key, err := decodeArgon2(encodedHash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, params.KeyLen)
	return subtle.ConstantTimeCompare(key, computed) == 1
}

// Upper bounds for parameters read back from a stored hash.
const (
	maxArgon2Memory = 1 << 20 // KiB
	maxArgon2Time   = 64
	maxArgon2KeyLen = 128
)

func decodeArgon2(encodedHash string) (Argon2Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Argon2Params{}, nil, nil, errors.New("malformed argon2 hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Argon2Params{}, nil, nil, errors.New("unsupported argon2 version")
	}

	var params Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Threads); err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("parse params: %w", err)
	}
	if params.Time == 0 || params.Threads == 0 || params.Memory == 0 ||
		params.Memory > maxArgon2Memory || params.Time > maxArgon2Time {
		return Argon2Params{}, nil, nil, errors.New("invalid argon2 params")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 || len(salt) > maxArgon2KeyLen {
		return Argon2Params{}, nil, nil, errors.New("decode salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxArgon2KeyLen {
		return Argon2Params{}, nil, nil, errors.New("decode key")
	}

	params.KeyLen = uint32(len(key))
	params.SaltLen = uint32(len(salt))
	return params, salt, key, nil
}

// MultiHasher hashes with Primary but verifies any supported encoding, so
// switching algorithms does not lock out existing accounts.
type MultiHasher struct {
	Primary PasswordHasher
	bcrypt  BcryptHasher
	argon2  Argon2Hasher
}

func NewPasswordHasher(algorithm string, bcryptCost int) *MultiHasher {
	b := NewBcryptHasher(bcryptCost)
	a := NewArgon2Hasher(DefaultArgon2Params)

	var primary PasswordHasher = b
	if algorithm == "argon2id" {
		primary = a
	}
	return &MultiHasher{Primary: primary, bcrypt: b, argon2: a}
}

func (m *MultiHasher) Hash(password string) (string, error) {
	return m.Primary.Hash(password)
}

func (m *MultiHasher) Verify(password string, encodedHash string) bool {
	if strings.HasPrefix(encodedHash, argon2Prefix) {
		return m.argon2.Verify(password, encodedHash)
	}
	return m.bcrypt.Verify(password, encodedHash)
}
