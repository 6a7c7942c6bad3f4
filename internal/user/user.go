// Package user registers chat-platform identities on first contact.
package user

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/gymyard/internal/apperr"
	"github.com/zulandar/gymyard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Identity is the caller as reported by the chat platform.
type Identity struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
}

// Ensure inserts a users row for id if none exists. An existing row is left
// untouched even when the display fields differ, so it is safe to call on
// every inbound message.
func Ensure(db *gorm.DB, id Identity) error {
	if strings.TrimSpace(id.ID) == "" {
		return apperr.Validation("user: id is required")
	}
	u := models.User{
		ID:        id.ID,
		Username:  optional(id.Username),
		FirstName: optional(id.FirstName),
		LastName:  optional(id.LastName),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&u).Error
	return apperr.Storage("user: ensure "+id.ID, err)
}

// Get returns the user with the given id.
func Get(db *gorm.DB, id string) (*models.User, error) {
	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, apperr.Storage(fmt.Sprintf("user: get %s", id), err)
	}
	return &u, nil
}

// optional maps an empty display string to NULL.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
