package model

import "time"

// Portfolio groups the transactions of one user under a name.
// Holdings and P&L are always derived from the transaction log, never stored here.
type Portfolio struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Transactions []Transaction `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

type CreatePortfolioPayload struct {
	Name string `json:"name"`
}
