package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	Name           string `gorm:"not null"`
	Email          string `gorm:"not null;uniqueIndex"`
	IsAdmin        bool
	IsApproved     bool
	ApprovalReason string
	CreatedAt      time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
