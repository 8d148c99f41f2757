package models

import "time"

type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleClient     UserRole = "client"
	UserRoleFreelancer UserRole = "freelancer"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleClient, UserRoleFreelancer:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         UserRole
	FirstName    string
	LastName     string
	Age          *int
	PhoneNumber  *string
	Biography    *string
	AvatarURL    *string
	SkillIDs     []int64
	CreatedAt    time.Time
}

// UserPatch carries the profile fields a caller asked to change; nil means
// leave as is. PasswordHash is set by the service, never bound from input.
type UserPatch struct {
	Username     *string
	Email        *string
	FirstName    *string
	LastName     *string
	Age          *int
	PhoneNumber  *string
	Biography    *string
	AvatarURL    *string
	PasswordHash *string
	SkillIDs     *[]int64
}

func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.FirstName == nil && p.LastName == nil &&
		p.Age == nil && p.PhoneNumber == nil && p.Biography == nil && p.AvatarURL == nil &&
		p.PasswordHash == nil && p.SkillIDs == nil
}

type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
