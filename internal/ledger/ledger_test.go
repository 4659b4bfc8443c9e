package ledger

import (
	"testing"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mygroceries/internal/database"
	"mygroceries/internal/models"
)

func newTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()
	db, err := database.InitDB("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	return New(db), db
}

func chicken(amount float64, unit models.Unit) models.IntentItem {
	return models.IntentItem{
		Item:     models.CanonicalItem{Key: "chicken", DisplayName: "Chicken", DefaultClass: models.ClassMass},
		Quantity: models.Quantity{Amount: amount, Unit: unit},
	}
}

func TestUseUnknownItemIsInsufficientAndUnlogged(t *testing.T) {
	l, db := newTestLedger(t)

	result, err := l.Apply("u1", "m1", models.Intent{Kind: models.IntentUse, Items: []models.IntentItem{chicken(1, models.UnitKilogram)}})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, models.OutcomeInsufficient, result.Outcomes[0].Status)
	assert.Empty(t, result.Events)

	var count int
	require.NoError(t, db.Model(&models.LedgerEvent{}).Count(&count).Error)
	assert.Zero(t, count, "no ledger event may exist for an item never added")
}

func TestAddTwiceSumsWithUnitConversion(t *testing.T) {
	l, db := newTestLedger(t)

	_, err := l.Apply("u1", "m1", models.Intent{Kind: models.IntentAdd, Items: []models.IntentItem{chicken(2, models.UnitKilogram)}})
	require.NoError(t, err)
	result, err := l.Apply("u1", "m2", models.Intent{Kind: models.IntentAdd, Items: []models.IntentItem{chicken(500, models.UnitGram)}})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, models.OutcomeAdded, result.Outcomes[0].Status)
	// 500 g converted to the stored unit (kg).
	assert.Equal(t, models.Quantity{Amount: 2.5, Unit: models.UnitKilogram}, result.Outcomes[0].Resulting)

	var count int
	require.NoError(t, db.Model(&models.LedgerEvent{}).Where("item_key = ?", "chicken").Count(&count).Error)
	assert.Equal(t, 2, count, "exactly two ledger events for two ADDs")
}

func TestUseClampsToZeroWithPartialFlag(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Apply("u1", "m1", models.Intent{Kind: models.IntentAdd, Items: []models.IntentItem{chicken(3, models.UnitKilogram)}})
	require.NoError(t, err)

	result, err := l.Apply("u1", "m2", models.Intent{Kind: models.IntentUse, Items: []models.IntentItem{chicken(5, models.UnitKilogram)}})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, models.OutcomePartial, result.Outcomes[0].Status)
	assert.Equal(t, 0.0, result.Outcomes[0].Resulting.Amount)

	require.Len(t, result.Events, 1)
	assert.Equal(t, -3.0, result.Events[0].Delta, "event delta is the clamped amount")
	assert.Equal(t, 0.0, result.Events[0].Resulting)

	entry, err := l.Query("chicken")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 0.0, entry.Amount, "stored amount is never negative")
}

func TestUseExactAndSufficient(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Apply("u1", "m1", models.Intent{Kind: models.IntentAdd, Items: []models.IntentItem{chicken(2, models.UnitKilogram)}})
	require.NoError(t, err)

	result, err := l.Apply("u1", "m2", models.Intent{Kind: models.IntentUse, Items: []models.IntentItem{chicken(500, models.UnitGram)}})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUsed, result.Outcomes[0].Status)
	assert.Equal(t, 1.5, result.Outcomes[0].Resulting.Amount)
}

func TestClearAllEmitsOneEventPerItem(t *testing.T) {
	l, db := newTestLedger(t)

	egg := models.IntentItem{
		Item:     models.CanonicalItem{Key: "egg", DefaultClass: models.ClassCount},
		Quantity: models.Quantity{Amount: 12, Unit: models.UnitPiece},
	}
	_, err := l.Apply("u1", "m1", models.Intent{Kind: models.IntentAdd, Items: []models.IntentItem{chicken(2, models.UnitKilogram), egg}})
	require.NoError(t, err)

	result, err := l.Apply("u1", "m2", models.Intent{Kind: models.IntentClearAll})
	require.NoError(t, err)
	require.Len(t, result.Events, 2)
	for _, ev := range result.Events {
		assert.Equal(t, string(models.IntentClearAll), ev.Kind)
		assert.Equal(t, 0.0, ev.Resulting)
		assert.Negative(t, ev.Delta)
	}

	snapshot, err := l.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snapshot)

	var count int
	require.NoError(t, db.Model(&models.InventoryEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestQueryProducesNoEvents(t *testing.T) {
	l, db := newTestLedger(t)

	_, err := l.Apply("u1", "m1", models.Intent{Kind: models.IntentAdd, Items: []models.IntentItem{chicken(2, models.UnitKilogram)}})
	require.NoError(t, err)

	var before int
	require.NoError(t, db.Model(&models.LedgerEvent{}).Count(&before).Error)

	entry, err := l.Query("chicken")
	require.NoError(t, err)
	require.NotNil(t, entry)
	_, err = l.Snapshot()
	require.NoError(t, err)

	var after int
	require.NoError(t, db.Model(&models.LedgerEvent{}).Count(&after).Error)
	assert.Equal(t, before, after)
}

func TestUnitMismatchSkipsItemButKeepsSiblings(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Apply("u1", "m1", models.Intent{Kind: models.IntentAdd, Items: []models.IntentItem{chicken(2, models.UnitKilogram)}})
	require.NoError(t, err)

	mismatched := chicken(3, models.UnitAnimal) // count vs stored mass
	egg := models.IntentItem{
		Item:     models.CanonicalItem{Key: "egg", DefaultClass: models.ClassCount},
		Quantity: models.Quantity{Amount: 6, Unit: models.UnitPiece},
	}
	result, err := l.Apply("u1", "m2", models.Intent{Kind: models.IntentAdd, Items: []models.IntentItem{mismatched, egg}})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, models.OutcomeUnitMismatch, result.Outcomes[0].Status)
	assert.Equal(t, models.OutcomeAdded, result.Outcomes[1].Status)
	require.Len(t, result.Events, 1, "mismatched item records no event")
	assert.Equal(t, "egg", result.Events[0].ItemKey)

	entry, err := l.Query("chicken")
	require.NoError(t, err)
	assert.Equal(t, 2.0, entry.Amount, "mismatched add must not change the entry")
}

func TestEventsNewestFirst(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Apply("u1", "m1", models.Intent{Kind: models.IntentAdd, Items: []models.IntentItem{chicken(1, models.UnitKilogram)}})
	require.NoError(t, err)
	_, err = l.Apply("u1", "m2", models.Intent{Kind: models.IntentUse, Items: []models.IntentItem{chicken(1, models.UnitKilogram)}})
	require.NoError(t, err)

	events, err := l.Events(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(models.IntentUse), events[0].Kind)
	assert.Equal(t, string(models.IntentAdd), events[1].Kind)
}
