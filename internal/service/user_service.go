package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"freelance/internal/apperr"
	"freelance/internal/ids"
	"freelance/internal/media/sniffer"
	"freelance/internal/models"
	"freelance/internal/repository"
	"freelance/internal/security"
)

type ProfileStore interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) (models.User, error)
	SetRole(ctx context.Context, id int64, role models.UserRole) error
	Delete(ctx context.Context, id int64) error
}

type AvatarStore interface {
	PutAvatar(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
	RemoveAvatar(ctx context.Context, publicURL string) error
}

type UserService struct {
	users         ProfileStore
	hasher        security.PasswordHasher
	avatars       AvatarStore
	maxAvatarSize int64
	log           zerolog.Logger
}

func NewUserService(users ProfileStore, hasher security.PasswordHasher, avatars AvatarStore, maxAvatarSize int64, log zerolog.Logger) *UserService {
	return &UserService{
		users:         users,
		hasher:        hasher,
		avatars:       avatars,
		maxAvatarSize: maxAvatarSize,
		log:           log,
	}
}

// MaxAvatarSize is the largest accepted avatar in bytes. Zero means no limit.
func (s *UserService) MaxAvatarSize() int64 {
	return s.maxAvatarSize
}

// ProfileUpdate is a partial profile change. Password, when set, is checked
// against the password policy and stored hashed.
type ProfileUpdate struct {
	Username    *string `validate:"omitnil,min=1,max=50"`
	Email       *string `validate:"omitnil,email"`
	FirstName   *string `validate:"omitnil,min=1,max=100"`
	LastName    *string `validate:"omitnil,min=1,max=100"`
	Age         *int    `validate:"omitnil,gt=0,lt=100"`
	PhoneNumber *string `validate:"omitnil,max=32"`
	Biography   *string `validate:"omitnil,min=5,max=2000"`
	Password    *string
	SkillIDs    *[]int64 `validate:"omitnil,dive,gt=0"`
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	limit, offset = clampPage(limit, offset)
	users, err := s.users.List(ctx, limit, offset)
	return users, translate("list users", err)
}

func (s *UserService) Get(ctx context.Context, id int64) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	return user, translate("get user", err)
}

func (s *UserService) Update(ctx context.Context, actor Actor, id int64, input ProfileUpdate) (models.User, error) {
	if !actor.canModify(id) {
		return models.User{}, errNotOwner
	}
	if input.Username != nil {
		trimmed := strings.TrimSpace(*input.Username)
		input.Username = &trimmed
	}
	if input.Email != nil {
		normalized := strings.TrimSpace(strings.ToLower(*input.Email))
		input.Email = &normalized
	}
	if err := validateStruct(input); err != nil {
		return models.User{}, err
	}

	patch := models.UserPatch{
		Username:    input.Username,
		Email:       input.Email,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Age:         input.Age,
		PhoneNumber: input.PhoneNumber,
		Biography:   input.Biography,
		SkillIDs:    input.SkillIDs,
	}
	if input.Password != nil {
		if err := security.ValidatePassword(*input.Password); err != nil {
			return models.User{}, apperr.Validation(err.Error())
		}
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return models.User{}, apperr.Internal("hash password", err)
		}
		patch.PasswordHash = &hash
	}
	if patch.Empty() {
		return s.Get(ctx, id)
	}

	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return models.User{}, translate("update user", err)
	}
	if patch.PasswordHash != nil {
		s.log.Info().Int64("user_id", id).Msg("password changed")
	}
	return user, nil
}

// Delete removes an account and, through cascades, everything it owns.
func (s *UserService) Delete(ctx context.Context, actor Actor, id int64) error {
	if !actor.canModify(id) {
		return errNotOwner
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return translate("get user", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return translate("delete user", err)
	}
	s.log.Info().Int64("user_id", id).Int64("by", actor.UserID).Msg("user deleted")

	if user.AvatarURL != nil {
		s.removeAvatar(ctx, *user.AvatarURL)
	}
	return nil
}

func (s *UserService) SetRole(ctx context.Context, actor Actor, id int64, role models.UserRole) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}
	if !role.Valid() {
		return apperr.Validation("unknown role")
	}
	if err := s.users.SetRole(ctx, id, role); err != nil {
		return translate("set role", err)
	}
	s.log.Info().Int64("user_id", id).Str("role", string(role)).Int64("by", actor.UserID).Msg("role changed")
	return nil
}

// EnsureAdmins promotes the named existing accounts to admin. Unknown names
// are skipped with a warning.
func (s *UserService) EnsureAdmins(ctx context.Context, usernames []string) error {
	for _, name := range usernames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		user, err := s.users.FindByUsername(ctx, name)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				s.log.Warn().Str("username", name).Msg("admin user not registered yet")
				continue
			}
			return translate("find admin user", err)
		}
		if user.Role == models.UserRoleAdmin {
			continue
		}
		if err := s.users.SetRole(ctx, user.ID, models.UserRoleAdmin); err != nil {
			return translate("promote admin", err)
		}
		s.log.Info().Str("username", name).Msg("user promoted to admin")
	}
	return nil
}

type AvatarUpload struct {
	Reader       io.Reader
	Size         int64
	DeclaredType string
}

// UploadAvatar stores a new avatar image for the user and points the
// profile at it. The previous object is removed afterwards.
func (s *UserService) UploadAvatar(ctx context.Context, actor Actor, id int64, input AvatarUpload) (models.User, error) {
	if !actor.canModify(id) {
		return models.User{}, errNotOwner
	}
	if s.avatars == nil {
		return models.User{}, apperr.Internal("upload avatar", errors.New("object storage not configured"))
	}
	if input.Reader == nil || input.Size <= 0 {
		return models.User{}, apperr.Validation("avatar file is required")
	}
	if s.maxAvatarSize > 0 && input.Size > s.maxAvatarSize {
		return models.User{}, apperr.Validation(fmt.Sprintf("avatar must be at most %d bytes", s.maxAvatarSize))
	}

	result, head, err := sniffer.Detect(input.Reader)
	if err != nil {
		if errors.Is(err, sniffer.ErrUnknownType) {
			return models.User{}, apperr.Validation("avatar must be a jpeg, png, gif or webp image")
		}
		return models.User{}, apperr.Internal("read avatar", err)
	}
	if err := sniffer.CheckDeclared(result, input.DeclaredType); err != nil {
		return models.User{}, apperr.Validation(err.Error())
	}

	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, translate("get user", err)
	}

	key := fmt.Sprintf("users/%d/%s.%s", id, ids.New(), result.Ext())
	body := io.MultiReader(bytes.NewReader(head), input.Reader)
	url, err := s.avatars.PutAvatar(ctx, key, result.MIME, body, input.Size)
	if err != nil {
		return models.User{}, apperr.Internal("store avatar", err)
	}

	user, err := s.users.Update(ctx, id, models.UserPatch{AvatarURL: &url})
	if err != nil {
		s.removeAvatar(ctx, url)
		return models.User{}, translate("save avatar url", err)
	}

	if current.AvatarURL != nil && *current.AvatarURL != url {
		s.removeAvatar(ctx, *current.AvatarURL)
	}
	return user, nil
}

func (s *UserService) removeAvatar(ctx context.Context, url string) {
	if s.avatars == nil {
		return
	}
	if err := s.avatars.RemoveAvatar(ctx, url); err != nil {
		s.log.Warn().Err(err).Str("url", url).Msg("remove avatar failed")
	}
}
