package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies ledger entries
type TransactionType string

const (
	TransactionEntryFee    TransactionType = "entry_fee"
	TransactionPrizeWin    TransactionType = "prize_win"
	TransactionFeeRefund   TransactionType = "fee_refund"
	TransactionPlatformFee TransactionType = "platform_fee"
)

// TransactionStatus is the settlement state of a ledger entry
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
)

// Transaction is an append-only ledger entry. Amounts are signed: debits are
// negative, credits positive. For any completed match the entries across all
// accounts (both players plus the platform account) sum to zero.
type Transaction struct {
	ID          string            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string            `gorm:"type:uuid;index;not null" json:"user_id"`
	Type        TransactionType   `gorm:"not null" json:"type"`
	Amount      decimal.Decimal   `gorm:"type:numeric(18,2);not null" json:"amount"`
	Status      TransactionStatus `gorm:"not null" json:"status"`
	MatchID     *string           `gorm:"type:uuid;index" json:"match_id,omitempty"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}
