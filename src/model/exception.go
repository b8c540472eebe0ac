package model

import "time"

// Exception is a persisted record of a background failure that would
// otherwise only exist in process logs. The valuation daemon writes one per
// portfolio whose snapshot attempt failed so operators can audit gaps in the
// snapshot series.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Where the error happened
	Component string `gorm:"size:100;index" json:"component"` // e.g. "valuationd"
	Op        string `gorm:"size:100" json:"op"`              // e.g. "snapshot"

	// Affected portfolio, when the failure is portfolio-scoped
	PortfolioID *uint `gorm:"index" json:"portfolio_id,omitempty"`

	// Error information
	Message string `gorm:"type:text" json:"message"`

	// Severity level
	Level string `gorm:"size:20;index" json:"level"` // warn | error

	// Audit info
	CreatedAt time.Time `json:"created_at"`
}

func (Exception) TableName() string {
	return "exceptions"
}
