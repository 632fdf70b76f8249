package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Industry is a dimension row classifying legal actions, loosely following
// the ISIC naming the seed data carries.
type Industry struct {
	ID   string `gorm:"type:uuid;primaryKey"`
	Name string `gorm:"not null"`

	// Code is the ISIC-style classification code, e.g. "C2011".
	Code string

	CreatedAt time.Time
}

func (i *Industry) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
