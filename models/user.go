package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultRoom is where users without a role land.
const DefaultRoom = "general"

// Roles mirror the dashboard variants the frontend ships.
var AllowedRoles = []string{"citizen", "admin", "manager", "staff", "intel"}

type User struct {
	gorm.Model
	Email           string `gorm:"uniqueIndex;size:120;not null"`
	Username        string `gorm:"uniqueIndex;size:80;not null"`
	FullName        string `gorm:"size:120"`
	Role            string `gorm:"size:30;index"`
	PasswordHash    string `gorm:"size:255;not null"`
	ProfileImageURL string `gorm:"size:500"`
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// DisplayName is the name snapshotted onto outgoing messages.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// ChatRoom derives the login room from the user's role, e.g. role "admin"
// lands in "room_admin". Users without a role share the default room.
func (u *User) ChatRoom() string {
	if u.Role == "" {
		return DefaultRoom
	}
	return "room_" + u.Role
}

func ValidRole(role string) bool {
	for _, r := range AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}
