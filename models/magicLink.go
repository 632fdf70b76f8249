package models

import "time"

// LoginMagicLink is a single-use login token. Redeeming a token sets its
// expiry to the redemption time, so `expiry > now` doubles as the
// validity check.
type LoginMagicLink struct {
	Token     string    `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"not null;index"`
	Expiry    time.Time `gorm:"not null"`
	CreatedAt time.Time
}
