package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QueueStatus is the lifecycle state of a matchmaking queue entry
type QueueStatus string

const (
	QueueStatusWaiting   QueueStatus = "waiting"
	QueueStatusMatched   QueueStatus = "matched"
	QueueStatusCancelled QueueStatus = "cancelled"
	QueueStatusExpired   QueueStatus = "expired"
)

// QueueEntry is a waiting player's matchmaking request. Rating and entry fee
// are snapshots taken at join time; pairing decisions use the snapshot, not
// the live user record. At most one waiting entry exists per user.
type QueueEntry struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string          `gorm:"type:uuid;index;not null" json:"user_id"`
	Username  string          `gorm:"not null" json:"username"`
	Rating    int             `gorm:"not null" json:"rating"`
	EntryFee  decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"entry_fee"`
	Status    QueueStatus     `gorm:"not null;index" json:"status"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (QueueEntry) TableName() string {
	return "match_queue"
}
