package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LegalAction is the central fact row: one legal proceeding against a
// company, attributed to an industry. Rows are seeded once and read-only
// afterwards.
type LegalAction struct {
	// ID is a unique identifier for the action, stored as a UUID in the database.
	ID string `gorm:"type:uuid;primaryKey"`

	// CompanyID references the company the action was brought against.
	CompanyID string `gorm:"type:uuid;not null;index"`

	// IndustryID references the industry the action is classified under.
	IndustryID string `gorm:"type:uuid;not null;index"`

	// ActionType describes the kind of proceeding (e.g. "class action", "settlement").
	ActionType string

	// Title is a short description of the proceeding.
	Title string `gorm:"not null"`

	// Status is the current outcome: filed, ongoing, settled or dismissed.
	Status string `gorm:"index"`

	// Date is when the action was filed or recorded.
	Date time.Time `gorm:"not null;index"`

	// SettlementAmount and SettlementCurrency are set once a settlement is finalized.
	SettlementAmount   float64
	SettlementCurrency string

	// SourceRefs is a JSONB field holding source links backing the record.
	SourceRefs datatypes.JSON

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *LegalAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
