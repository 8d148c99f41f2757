package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"freelance/internal/apperr"
	"freelance/internal/models"
	"freelance/internal/repository"
	"freelance/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Exists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
}

type RefreshTokenStore interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (models.RefreshToken, error)
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteByID(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

var (
	errInvalidCredentials = apperr.Unauthorized("invalid username or password")
	errInvalidRefresh     = apperr.Unauthorized("invalid refresh token")
	errInvalidAccess      = apperr.Unauthorized("invalid access token")
)

type AuthService struct {
	users    UserStore
	tokens   RefreshTokenStore
	hasher   security.PasswordHasher
	issuer   *security.TokenIssuer
	verifier *security.TokenVerifier
	now      func() time.Time
	log      zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	users UserStore,
	tokens RefreshTokenStore,
	hasher security.PasswordHasher,
	issuer *security.TokenIssuer,
	verifier *security.TokenVerifier,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		issuer:   issuer,
		verifier: verifier,
		now:      time.Now,
		log:      log,
	}
}

// WithClock sets the clock used for refresh-row expiry checks. The issuer
// and verifier carry their own.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

type RegisterInput struct {
	Username    string `validate:"max=50"`
	Email       string `validate:"max=254"`
	Password    string
	Role        models.UserRole
	FirstName   string  `validate:"max=100"`
	LastName    string  `validate:"max=100"`
	Age         *int
	PhoneNumber *string `validate:"omitnil,max=32"`
	Biography   *string `validate:"omitnil,min=5,max=2000"`
	SkillIDs    []int64 `validate:"dive,gt=0"`
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
}

type AccessToken struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Register creates a client or freelancer account and returns its id.
// Admin accounts are only granted by promotion.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (int64, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if input.Username == "" || input.Email == "" {
		return 0, apperr.Validation("username and email are required")
	}
	if err := validateStruct(input); err != nil {
		return 0, err
	}
	if !strings.Contains(input.Email, "@") {
		return 0, apperr.Validation("email is invalid")
	}
	if input.Role == "" {
		input.Role = models.UserRoleClient
	}
	if input.Role != models.UserRoleClient && input.Role != models.UserRoleFreelancer {
		return 0, apperr.Validation("role must be client or freelancer")
	}
	if input.Age != nil && (*input.Age < 1 || *input.Age > 99) {
		return 0, apperr.Validation("age must be between 1 and 99")
	}
	if err := security.ValidatePassword(input.Password); err != nil {
		return 0, apperr.Validation(err.Error())
	}

	usernameTaken, emailTaken, err := s.users.Exists(ctx, input.Username, input.Email)
	if err != nil {
		return 0, translate("check user exists", err)
	}
	if usernameTaken {
		return 0, apperr.Conflict("username already exists")
	}
	if emailTaken {
		return 0, apperr.Conflict("email already exists")
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return 0, apperr.Internal("hash password", err)
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         input.Role,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Age:          input.Age,
		PhoneNumber:  input.PhoneNumber,
		Biography:    input.Biography,
		SkillIDs:     input.SkillIDs,
	}
	// A concurrent register with the same name loses here on the unique index.
	if err := s.users.Create(ctx, &user); err != nil {
		return 0, translate("create user", err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user.ID, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (TokenPair, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Spend the same hashing work as a real check.
			s.hasher.Verify(password, s.placeholderHash())
			s.log.Debug().Str("username", username).Msg("login failed: unknown user")
			return TokenPair{}, errInvalidCredentials
		}
		return TokenPair{}, translate("find user", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Info().Int64("user_id", user.ID).Msg("login failed: wrong password")
		return TokenPair{}, errInvalidCredentials
	}

	subject := subjectOf(user)
	access, err := s.issuer.IssueAccess(subject)
	if err != nil {
		return TokenPair{}, apperr.Internal("issue access token", err)
	}
	refresh, err := s.issuer.IssueRefresh(subject)
	if err != nil {
		return TokenPair{}, apperr.Internal("issue refresh token", err)
	}

	row := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: security.HashRefreshToken(refresh.Value),
		ExpiresAt: refresh.ExpiresAt,
	}
	if err := s.tokens.Create(ctx, &row); err != nil {
		return TokenPair{}, translate("persist refresh token", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user logged in")
	return TokenPair{
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		TokenType:    security.TokenTypeBearer,
		ExpiresAt:    access.ExpiresAt,
	}, nil
}

// Refresh exchanges a stored refresh token for a new access token. The
// refresh token itself is neither rotated nor modified.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AccessToken, error) {
	if refreshToken == "" {
		return AccessToken{}, errInvalidRefresh
	}

	row, err := s.tokens.FindByHash(ctx, security.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return AccessToken{}, errInvalidRefresh
		}
		return AccessToken{}, translate("find refresh token", err)
	}

	if row.Expired(s.now()) {
		if err := s.tokens.DeleteByID(ctx, row.ID); err != nil && !errors.Is(err, repository.ErrRefreshTokenNotFound) {
			s.log.Warn().Err(err).Int64("token_id", row.ID).Msg("delete expired refresh token failed")
		}
		return AccessToken{}, errInvalidRefresh
	}

	user, err := s.users.GetByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AccessToken{}, errInvalidRefresh
		}
		return AccessToken{}, translate("find token owner", err)
	}

	access, err := s.issuer.IssueAccess(subjectOf(user))
	if err != nil {
		return AccessToken{}, apperr.Internal("issue access token", err)
	}

	return AccessToken{
		AccessToken: access.Value,
		TokenType:   security.TokenTypeBearer,
		ExpiresAt:   access.ExpiresAt,
	}, nil
}

// Logout revokes one refresh token. A second call with the same token fails.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return errInvalidRefresh
	}

	if err := s.tokens.DeleteByHash(ctx, security.HashRefreshToken(refreshToken)); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return errInvalidRefresh
		}
		return translate("delete refresh token", err)
	}
	return nil
}

// LogoutAll revokes every refresh token of userID and reports how many.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) (int64, error) {
	revoked, err := s.tokens.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, translate("delete refresh tokens", err)
	}
	s.log.Info().Int64("user_id", userID).Int64("revoked", revoked).Msg("sessions revoked")
	return revoked, nil
}

// Authenticate verifies a bearer access token. It never touches the store,
// so an access token stays valid until it expires even after logout.
func (s *AuthService) Authenticate(accessToken string) (security.Claims, error) {
	claims, err := s.verifier.VerifyAccess(accessToken)
	if err != nil {
		return security.Claims{}, errInvalidAccess
	}
	return claims, nil
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("placeholder-Passw0rd")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func subjectOf(user models.User) security.Subject {
	return security.Subject{Name: user.Username, UserID: user.ID, Role: string(user.Role)}
}
