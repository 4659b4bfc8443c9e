package models

import "time"

// InventoryEntry is the live on-hand quantity for one canonical item.
// At most one entry exists per item.
type InventoryEntry struct {
	ID        uint      `gorm:"primary_key" json:"-"`
	ItemKey   string    `gorm:"unique_index;not null" json:"item_key"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Unit      string    `gorm:"not null" json:"unit"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// LedgerEvent is an immutable audit record of one inventory mutation.
// The table is append-only; events are the sole basis for history and undo.
type LedgerEvent struct {
	ID              uint      `gorm:"primary_key" json:"sequence"`
	ItemKey         string    `gorm:"index;not null" json:"item_key"`
	Kind            string    `gorm:"not null" json:"kind"`
	Delta           float64   `gorm:"not null" json:"delta"`
	Unit            string    `gorm:"not null" json:"unit"`
	Resulting       float64   `gorm:"not null" json:"resulting"`
	UserID          string    `json:"user_id"`
	SourceMessageID string    `json:"source_message_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// ItemAlias is one row of the persisted alias map.
type ItemAlias struct {
	ID           uint   `gorm:"primary_key" json:"-"`
	Alias        string `gorm:"unique_index;not null" json:"alias"`
	ItemKey      string `gorm:"index;not null" json:"item_key"`
	DisplayName  string `json:"display_name"`
	DefaultClass string `json:"default_class"`
}

// OutcomeStatus classifies the per-item result of applying an intent.
type OutcomeStatus string

const (
	OutcomeAdded        OutcomeStatus = "added"
	OutcomeUsed         OutcomeStatus = "used"
	OutcomePartial      OutcomeStatus = "partially_fulfilled"
	OutcomeInsufficient OutcomeStatus = "insufficient_stock"
	OutcomeUnitMismatch OutcomeStatus = "unit_mismatch"
	OutcomeCleared      OutcomeStatus = "cleared"
)

// ItemOutcome reports what happened to a single item during apply.
type ItemOutcome struct {
	ItemKey   string        `json:"item_key"`
	Status    OutcomeStatus `json:"status"`
	Requested Quantity      `json:"requested"`
	// Resulting is the stored quantity after the mutation, in the
	// entry's stored unit.
	Resulting Quantity `json:"resulting"`
}

// ApplyResult reports the per-item outcomes of one ledger apply.
type ApplyResult struct {
	Outcomes []ItemOutcome `json:"outcomes"`
	Events   []LedgerEvent `json:"events,omitempty"`
}
