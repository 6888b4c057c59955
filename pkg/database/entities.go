package database

import (
	"time"
)

// Receipt is the stored outcome of a processed transaction, successful or
// not. (Sender, Sequence) is unique by construction: the sequencer admits
// each pair at most once.
type Receipt struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Sender    string `gorm:"type:varchar(42);index:idx_receipts_sender_sequence,unique"`
	Sequence  uint64 `gorm:"index:idx_receipts_sender_sequence,unique"`
	Method    string `gorm:"type:varchar(16)"`
	Contract  string `gorm:"type:varchar(32);index"`
	Recipient string `gorm:"type:varchar(42)"`
	Amount    uint64
	Status    string `gorm:"type:varchar(24);index"`
	Balance   uint64
	Timestamp time.Time `gorm:"index"`
}

// EngineState is a singleton row recording how far the engine has processed.
type EngineState struct {
	ID        int `gorm:"primaryKey"`
	Height    uint64
	UpdatedAt time.Time
}

// NewState builds the singleton engine-state row for the given height.
func NewState(height uint64) *EngineState {
	return &EngineState{
		ID:        globalStateID,
		Height:    height,
		UpdatedAt: time.Now(),
	}
}
