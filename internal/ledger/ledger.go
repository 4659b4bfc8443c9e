// Package ledger holds the current on-hand quantities per canonical item and
// the append-only change log. It owns the inventory and event tables
// exclusively; no other component mutates them.
package ledger

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"

	"mygroceries/internal/models"
)

// Ledger applies validated intents to the persistent inventory state.
// Every Apply runs in a single transaction so entries and events stay
// consistent. Confirmation gating is the caller's job: CLEAR_ALL executes
// unconditionally once it reaches the ledger.
type Ledger struct {
	db *gorm.DB
}

// New creates a ledger over an initialized database connection.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Apply executes a mutating intent (ADD, USE or CLEAR_ALL) and reports the
// per-item outcomes. Items are independent: one item's unit mismatch does
// not roll back its siblings.
func (l *Ledger) Apply(userID, messageID string, intent models.Intent) (models.ApplyResult, error) {
	var result models.ApplyResult

	tx := l.db.Begin()
	if tx.Error != nil {
		return result, &models.StoreError{Op: "begin", Err: tx.Error}
	}

	var err error
	switch intent.Kind {
	case models.IntentAdd:
		err = l.applyItems(tx, userID, messageID, intent.Items, l.add, &result)
	case models.IntentUse:
		err = l.applyItems(tx, userID, messageID, intent.Items, l.use, &result)
	case models.IntentClearAll:
		err = l.clearAll(tx, userID, messageID, &result)
	default:
		tx.Rollback()
		return result, fmt.Errorf("intent %s is not a ledger mutation", intent.Kind)
	}
	if err != nil {
		tx.Rollback()
		return models.ApplyResult{}, err
	}
	if err := tx.Commit().Error; err != nil {
		return models.ApplyResult{}, &models.StoreError{Op: "commit", Err: err}
	}
	return result, nil
}

type itemOp func(tx *gorm.DB, userID, messageID string, it models.IntentItem) (models.ItemOutcome, *models.LedgerEvent, error)

func (l *Ledger) applyItems(tx *gorm.DB, userID, messageID string, items []models.IntentItem, op itemOp, result *models.ApplyResult) error {
	for _, it := range items {
		outcome, event, err := op(tx, userID, messageID, it)
		if err != nil {
			return err
		}
		result.Outcomes = append(result.Outcomes, outcome)
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return &models.StoreError{Op: "append event", Err: err}
			}
			result.Events = append(result.Events, *event)
		}
	}
	return nil
}

// add creates the entry if absent, otherwise adds the quantity converted to
// the entry's stored unit.
func (l *Ledger) add(tx *gorm.DB, userID, messageID string, it models.IntentItem) (models.ItemOutcome, *models.LedgerEvent, error) {
	now := time.Now()
	outcome := models.ItemOutcome{ItemKey: it.Item.Key, Requested: it.Quantity}

	var entry models.InventoryEntry
	err := tx.Where("item_key = ?", it.Item.Key).First(&entry).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		entry = models.InventoryEntry{
			ItemKey:   it.Item.Key,
			Amount:    it.Quantity.Amount,
			Unit:      string(it.Quantity.Unit),
			UpdatedAt: now,
			UpdatedBy: userID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return outcome, nil, &models.StoreError{Op: "create entry", Err: err}
		}
	case err != nil:
		return outcome, nil, &models.StoreError{Op: "load entry", Err: err}
	default:
		converted, cerr := it.Quantity.ConvertTo(models.Unit(entry.Unit))
		if cerr != nil {
			outcome.Status = models.OutcomeUnitMismatch
			outcome.Resulting = models.Quantity{Amount: entry.Amount, Unit: models.Unit(entry.Unit)}
			return outcome, nil, nil
		}
		entry.Amount += converted.Amount
		entry.UpdatedAt = now
		entry.UpdatedBy = userID
		if err := tx.Save(&entry).Error; err != nil {
			return outcome, nil, &models.StoreError{Op: "update entry", Err: err}
		}
	}

	outcome.Status = models.OutcomeAdded
	outcome.Resulting = models.Quantity{Amount: entry.Amount, Unit: models.Unit(entry.Unit)}

	delta, err := it.Quantity.ConvertTo(models.Unit(entry.Unit))
	if err != nil {
		// Fresh entry stores the quantity's own unit, so this never fires.
		return outcome, nil, err
	}
	event := &models.LedgerEvent{
		ItemKey:         it.Item.Key,
		Kind:            string(models.IntentAdd),
		Delta:           delta.Amount,
		Unit:            entry.Unit,
		Resulting:       entry.Amount,
		UserID:          userID,
		SourceMessageID: messageID,
		CreatedAt:       now,
	}
	return outcome, event, nil
}

// use subtracts stock. A missing entry is InsufficientStock with no event;
// an undersized entry is drained to zero and reported as partially
// fulfilled, with the clamped delta on the event. Stored amounts never go
// negative.
func (l *Ledger) use(tx *gorm.DB, userID, messageID string, it models.IntentItem) (models.ItemOutcome, *models.LedgerEvent, error) {
	now := time.Now()
	outcome := models.ItemOutcome{ItemKey: it.Item.Key, Requested: it.Quantity}

	var entry models.InventoryEntry
	err := tx.Where("item_key = ?", it.Item.Key).First(&entry).Error
	if gorm.IsRecordNotFoundError(err) {
		outcome.Status = models.OutcomeInsufficient
		outcome.Resulting = models.Quantity{Amount: 0, Unit: it.Quantity.Unit}
		return outcome, nil, nil
	}
	if err != nil {
		return outcome, nil, &models.StoreError{Op: "load entry", Err: err}
	}

	requested, cerr := it.Quantity.ConvertTo(models.Unit(entry.Unit))
	if cerr != nil {
		outcome.Status = models.OutcomeUnitMismatch
		outcome.Resulting = models.Quantity{Amount: entry.Amount, Unit: models.Unit(entry.Unit)}
		return outcome, nil, nil
	}

	delta := requested.Amount
	if entry.Amount < requested.Amount {
		delta = entry.Amount
		entry.Amount = 0
		outcome.Status = models.OutcomePartial
	} else {
		entry.Amount -= requested.Amount
		outcome.Status = models.OutcomeUsed
	}
	entry.UpdatedAt = now
	entry.UpdatedBy = userID
	if err := tx.Save(&entry).Error; err != nil {
		return outcome, nil, &models.StoreError{Op: "update entry", Err: err}
	}

	outcome.Resulting = models.Quantity{Amount: entry.Amount, Unit: models.Unit(entry.Unit)}
	event := &models.LedgerEvent{
		ItemKey:         it.Item.Key,
		Kind:            string(models.IntentUse),
		Delta:           -delta,
		Unit:            entry.Unit,
		Resulting:       entry.Amount,
		UserID:          userID,
		SourceMessageID: messageID,
		CreatedAt:       now,
	}
	return outcome, event, nil
}

// clearAll removes every entry, one event per removed item.
func (l *Ledger) clearAll(tx *gorm.DB, userID, messageID string, result *models.ApplyResult) error {
	now := time.Now()

	var entries []models.InventoryEntry
	if err := tx.Order("item_key").Find(&entries).Error; err != nil {
		return &models.StoreError{Op: "load entries", Err: err}
	}
	for _, entry := range entries {
		event := models.LedgerEvent{
			ItemKey:         entry.ItemKey,
			Kind:            string(models.IntentClearAll),
			Delta:           -entry.Amount,
			Unit:            entry.Unit,
			Resulting:       0,
			UserID:          userID,
			SourceMessageID: messageID,
			CreatedAt:       now,
		}
		if err := tx.Create(&event).Error; err != nil {
			return &models.StoreError{Op: "append event", Err: err}
		}
		result.Events = append(result.Events, event)
		result.Outcomes = append(result.Outcomes, models.ItemOutcome{
			ItemKey:   entry.ItemKey,
			Status:    models.OutcomeCleared,
			Requested: models.Quantity{Amount: entry.Amount, Unit: models.Unit(entry.Unit)},
			Resulting: models.Quantity{Amount: 0, Unit: models.Unit(entry.Unit)},
		})
	}
	if err := tx.Delete(&models.InventoryEntry{}).Error; err != nil {
		return &models.StoreError{Op: "delete entries", Err: err}
	}
	return nil
}

// Snapshot returns the in-stock entries, sorted by item key. It backs both
// QUERY-all replies and the inventory context handed to the interpreter.
func (l *Ledger) Snapshot() ([]models.InventoryEntry, error) {
	var entries []models.InventoryEntry
	if err := l.db.Where("amount > 0").Order("item_key").Find(&entries).Error; err != nil {
		return nil, &models.StoreError{Op: "snapshot", Err: err}
	}
	return entries, nil
}

// Query returns the entry for one item. Read-only; produces no event.
func (l *Ledger) Query(itemKey string) (*models.InventoryEntry, error) {
	var entry models.InventoryEntry
	err := l.db.Where("item_key = ?", itemKey).First(&entry).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &models.StoreError{Op: "query", Err: err}
	}
	return &entry, nil
}

// Events returns the most recent ledger events, newest first.
func (l *Ledger) Events(limit int) ([]models.LedgerEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.LedgerEvent
	if err := l.db.Order("id desc").Limit(limit).Find(&events).Error; err != nil {
		return nil, &models.StoreError{Op: "events", Err: err}
	}
	return events, nil
}
