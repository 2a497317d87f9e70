package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a duel participant. WalletBalance and rating are only ever mutated
// inside ledger/settlement transactions and must never go negative.
type User struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID    string          `gorm:"uniqueIndex;not null" json:"external_id"`
	Email         string          `gorm:"not null" json:"email"`
	Username      string          `gorm:"uniqueIndex;not null" json:"username"`
	Rating        int             `gorm:"not null;index" json:"rating"`
	Wins          int             `gorm:"not null;default:0" json:"wins"`
	Losses        int             `gorm:"not null;default:0" json:"losses"`
	WalletBalance decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"wallet_balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}
