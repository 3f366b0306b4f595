package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username     string `json:"username" gorm:"size:150;uniqueIndex"`
	Email        string `json:"email" gorm:"size:254"`
	FirstName    string `json:"first_name" gorm:"size:150"`
	LastName     string `json:"last_name" gorm:"size:150"`
	PasswordHash string `json:"-"`
	IsStaff      bool   `json:"is_staff"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Username
	}
}

// UserProfile extends a user account with runner-facing profile data.
// Provisioned together with the account at signup.
type UserProfile struct {
	gorm.Model
	UserID                uint       `json:"user_id" gorm:"uniqueIndex"`
	User                  User       `json:"-"`
	DisplayName           string     `json:"display_name" gorm:"size:150"`
	Bio                   string     `json:"bio"`
	City                  string     `json:"city" gorm:"size:120"`
	Country               string     `json:"country" gorm:"size:120"`
	AvatarURL             string     `json:"avatar_url"`
	FavoriteDistance      string     `json:"favorite_distance" gorm:"size:12"`
	EmergencyContactName  string     `json:"emergency_contact_name" gorm:"size:120"`
	EmergencyContactPhone string     `json:"emergency_contact_phone" gorm:"size:30"`
	Website               string     `json:"website"`
	InstagramHandle       string     `json:"instagram_handle" gorm:"size:80"`
	StravaProfile         string     `json:"strava_profile"`
	BirthDate             *time.Time `json:"birth_date"`
}

// FavoriteDistances are the accepted values for UserProfile.FavoriteDistance.
var FavoriteDistances = []string{"5K", "10K", "21K", "42K", "ULTRA"}

// FullDisplayName prefers the profile display name over the account name.
func (p *UserProfile) FullDisplayName() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.User.FullName()
}
