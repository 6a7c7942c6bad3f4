package models

import "time"

// User is a chat-platform identity, created on first contact and never deleted.
type User struct {
	ID        string  `gorm:"primaryKey;size:64"`
	Username  *string `gorm:"size:128"`
	FirstName *string `gorm:"size:128"`
	LastName  *string `gorm:"size:128"`
	CreatedAt time.Time
}

// DisplayName returns the best available human-readable name for the user.
func (u User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	if u.FirstName != nil && *u.FirstName != "" {
		if u.LastName != nil && *u.LastName != "" {
			return *u.FirstName + " " + *u.LastName
		}
		return *u.FirstName
	}
	return u.ID
}
