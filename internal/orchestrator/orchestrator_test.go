package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mygroceries/internal/conversation"
	"mygroceries/internal/database"
	"mygroceries/internal/ledger"
	"mygroceries/internal/models"
	"mygroceries/internal/normalize"
)

// fakeInterpreter returns canned intents so tests drive the orchestrator
// without a model in the loop.
type fakeInterpreter struct {
	interpret func(text string) models.Intent
	recipes   []models.Recipe
	recipeErr error
}

func (f *fakeInterpreter) Interpret(_ context.Context, text string, _ []models.InventoryEntry) models.Intent {
	return f.interpret(text)
}

func (f *fakeInterpreter) SuggestRecipes(_ context.Context, _ []models.InventoryEntry) ([]models.Recipe, error) {
	return f.recipes, f.recipeErr
}

type fixture struct {
	orch   *Orchestrator
	ledger *ledger.Ledger
	table  *normalize.Table
}

func newFixture(t *testing.T, interp Interpreter, cfg conversation.Config) fixture {
	t.Helper()
	db, err := database.InitDB("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	table, err := normalize.NewTable(nil)
	require.NoError(t, err)

	l := ledger.New(db)
	return fixture{
		orch:   New(interp, l, table, conversation.NewMachine(cfg)),
		ledger: l,
		table:  table,
	}
}

func chickenItem(amount float64, unit models.Unit) models.IntentItem {
	return models.IntentItem{
		Item:     models.CanonicalItem{Key: "chicken", DisplayName: "chicken", DefaultClass: models.ClassMass},
		Quantity: models.Quantity{Amount: amount, Unit: unit},
		RawName:  "ayam",
	}
}

func addIntent(items ...models.IntentItem) models.Intent {
	return models.Intent{Kind: models.IntentAdd, Items: items}
}

func TestHandleAddAppliesImmediately(t *testing.T) {
	interp := &fakeInterpreter{interpret: func(string) models.Intent {
		return addIntent(chickenItem(2, models.UnitKilogram))
	}}
	fx := newFixture(t, interp, conversation.Config{})

	resp, err := fx.orch.Handle(context.Background(), "u1", "m1", "beli 2kg ayam")
	require.NoError(t, err)
	assert.False(t, resp.AwaitingConfirmation)
	assert.Contains(t, resp.Text, "Added 2 kg of chicken")
	assert.Contains(t, resp.Text, "Current stock:")

	snapshot, err := fx.ledger.Snapshot()
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, 2.0, snapshot[0].Amount)
}

func TestHandleClearAllRequiresConfirmation(t *testing.T) {
	interp := &fakeInterpreter{interpret: func(text string) models.Intent {
		if text == "hapus semua" {
			return models.Intent{Kind: models.IntentClearAll, Text: text}
		}
		return addIntent(chickenItem(2, models.UnitKilogram))
	}}
	fx := newFixture(t, interp, conversation.Config{})

	_, err := fx.orch.Handle(context.Background(), "u1", "m1", "beli ayam")
	require.NoError(t, err)

	resp, err := fx.orch.Handle(context.Background(), "u1", "m2", "hapus semua")
	require.NoError(t, err)
	assert.True(t, resp.AwaitingConfirmation)

	// Nothing is cleared until the user says yes.
	snapshot, _ := fx.ledger.Snapshot()
	assert.Len(t, snapshot, 1)

	resp, err = fx.orch.Handle(context.Background(), "u1", "m3", "yes")
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Cleared 1 item(s)")

	snapshot, _ = fx.ledger.Snapshot()
	assert.Empty(t, snapshot)
}

func TestHandleClearAllDeclined(t *testing.T) {
	interp := &fakeInterpreter{interpret: func(text string) models.Intent {
		if text == "clear" {
			return models.Intent{Kind: models.IntentClearAll, Text: text}
		}
		return addIntent(chickenItem(1, models.UnitKilogram))
	}}
	fx := newFixture(t, interp, conversation.Config{})

	_, err := fx.orch.Handle(context.Background(), "u1", "m1", "add")
	require.NoError(t, err)
	_, err = fx.orch.Handle(context.Background(), "u1", "m2", "clear")
	require.NoError(t, err)

	resp, err := fx.orch.Handle(context.Background(), "u1", "m3", "no")
	require.NoError(t, err)
	assert.Equal(t, msgCancelled, resp.Text)

	snapshot, _ := fx.ledger.Snapshot()
	assert.Len(t, snapshot, 1, "declined clear leaves stock intact")
}

func TestHandleClearAllOnEmptyInventory(t *testing.T) {
	interp := &fakeInterpreter{interpret: func(text string) models.Intent {
		return models.Intent{Kind: models.IntentClearAll, Text: text}
	}}
	fx := newFixture(t, interp, conversation.Config{})

	resp, err := fx.orch.Handle(context.Background(), "u1", "m1", "hapus semua")
	require.NoError(t, err)
	assert.Equal(t, msgAlreadyEmpty, resp.Text)
	assert.False(t, resp.AwaitingConfirmation)
}

func TestUnrelatedMessageImplicitlyCancels(t *testing.T) {
	interp := &fakeInterpreter{interpret: func(text string) models.Intent {
		if text == "clear" {
			return models.Intent{Kind: models.IntentClearAll, Text: text}
		}
		return addIntent(chickenItem(1, models.UnitKilogram))
	}}
	fx := newFixture(t, interp, conversation.Config{})

	_, err := fx.orch.Handle(context.Background(), "u1", "m1", "add")
	require.NoError(t, err)
	_, err = fx.orch.Handle(context.Background(), "u1", "m2", "clear")
	require.NoError(t, err)

	// An unrelated message drops the pending clear and is processed
	// normally, last write wins.
	resp, err := fx.orch.Handle(context.Background(), "u1", "m3", "add")
	require.NoError(t, err)
	assert.False(t, resp.AwaitingConfirmation)
	assert.Contains(t, resp.Text, "Added")

	snapshot, _ := fx.ledger.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, 2.0, snapshot[0].Amount, "pending clear never ran")
}

func TestUnrelatedMessageRemindsWhenExplicitCancelRequired(t *testing.T) {
	interp := &fakeInterpreter{interpret: func(text string) models.Intent {
		if text == "clear" {
			return models.Intent{Kind: models.IntentClearAll, Text: text}
		}
		return addIntent(chickenItem(1, models.UnitKilogram))
	}}
	fx := newFixture(t, interp, conversation.Config{RequireExplicitCancel: true})

	_, err := fx.orch.Handle(context.Background(), "u1", "m1", "add")
	require.NoError(t, err)
	_, err = fx.orch.Handle(context.Background(), "u1", "m2", "clear")
	require.NoError(t, err)

	resp, err := fx.orch.Handle(context.Background(), "u1", "m3", "add")
	require.NoError(t, err)
	assert.True(t, resp.AwaitingConfirmation)
	assert.Contains(t, resp.Text, "yes or no")

	resp, err = fx.orch.Handle(context.Background(), "u1", "m4", "yes")
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Cleared")
}

func TestNewItemParksAndRegistersOnConfirm(t *testing.T) {
	newItem := models.IntentItem{
		Item:     models.CanonicalItem{Key: "dragonfruit", DisplayName: "dragonfruit", DefaultClass: models.ClassCount},
		Quantity: models.Quantity{Amount: 4, Unit: models.UnitPiece},
		RawName:  "dragonfruit",
		NewItem:  true,
	}
	interp := &fakeInterpreter{interpret: func(string) models.Intent {
		return addIntent(newItem)
	}}
	fx := newFixture(t, interp, conversation.Config{})

	resp, err := fx.orch.Handle(context.Background(), "u1", "m1", "bought 4 dragonfruit")
	require.NoError(t, err)
	assert.True(t, resp.AwaitingConfirmation)
	assert.Contains(t, resp.Text, "dragonfruit")

	// Not in the vocabulary and not in stock until confirmed.
	_, _, rerr := fx.table.ResolveName("dragonfruit")
	assert.Error(t, rerr)
	snapshot, _ := fx.ledger.Snapshot()
	assert.Empty(t, snapshot)

	resp, err = fx.orch.Handle(context.Background(), "u1", "m2", "yes")
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Added 4 pcs of dragonfruit")

	item, match, rerr := fx.table.ResolveName("dragonfruit")
	require.NoError(t, rerr, "confirmed add registers the alias")
	assert.Equal(t, normalize.MatchExact, match)
	assert.Equal(t, "dragonfruit", item.Key)

	snapshot, _ = fx.ledger.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, 4.0, snapshot[0].Amount)
}

func TestUnknownDestructiveTextStillConfirms(t *testing.T) {
	interp := &fakeInterpreter{interpret: func(text string) models.Intent {
		if text == "add" {
			return addIntent(chickenItem(1, models.UnitKilogram))
		}
		return models.Intent{Kind: models.IntentUnknown, Text: text}
	}}
	fx := newFixture(t, interp, conversation.Config{})

	_, err := fx.orch.Handle(context.Background(), "u1", "m1", "add")
	require.NoError(t, err)

	resp, err := fx.orch.Handle(context.Background(), "u1", "m2", "pls hapus semua skrg")
	require.NoError(t, err)
	assert.True(t, resp.AwaitingConfirmation, "destructive-looking text never slips through unconfirmed")
}

func TestServiceUnavailableLeavesStateAlone(t *testing.T) {
	interp := &fakeInterpreter{interpret: func(string) models.Intent {
		return models.Intent{Kind: models.IntentUnknown, ServiceUnavailable: true}
	}}
	fx := newFixture(t, interp, conversation.Config{})

	resp, err := fx.orch.Handle(context.Background(), "u1", "m1", "beli 2kg ayam")
	require.NoError(t, err)
	assert.Equal(t, msgServiceDown, resp.Text)
	assert.False(t, resp.AwaitingConfirmation)

	events, _ := fx.ledger.Events(10)
	assert.Empty(t, events)
}

func TestHandleExtractedAlwaysParks(t *testing.T) {
	interp := &fakeInterpreter{interpret: func(string) models.Intent {
		return addIntent(chickenItem(2, models.UnitKilogram))
	}}
	fx := newFixture(t, interp, conversation.Config{})

	resp, err := fx.orch.HandleExtracted(context.Background(), "u1", "m1", "RECEIPT chicken 2kg ...")
	require.NoError(t, err)
	assert.True(t, resp.AwaitingConfirmation, "extracted items park even when every item is known")

	snapshot, _ := fx.ledger.Snapshot()
	assert.Empty(t, snapshot)

	_, err = fx.orch.Handle(context.Background(), "u1", "m2", "yes")
	require.NoError(t, err)
	snapshot, _ = fx.ledger.Snapshot()
	assert.Len(t, snapshot, 1)
}

func TestQuerySpecificAndAll(t *testing.T) {
	kind := models.IntentQuery
	var queryItem *models.CanonicalItem
	interp := &fakeInterpreter{interpret: func(text string) models.Intent {
		if text == "add" {
			return addIntent(chickenItem(2, models.UnitKilogram))
		}
		return models.Intent{Kind: kind, QueryItem: queryItem, Text: text}
	}}
	fx := newFixture(t, interp, conversation.Config{})

	_, err := fx.orch.Handle(context.Background(), "u1", "m1", "add")
	require.NoError(t, err)

	queryItem = &models.CanonicalItem{Key: "chicken", DisplayName: "chicken"}
	resp, err := fx.orch.Handle(context.Background(), "u1", "m2", "how much chicken")
	require.NoError(t, err)
	assert.Equal(t, "You have 2 kg of chicken.", resp.Text)

	queryItem = &models.CanonicalItem{Key: "milk", DisplayName: "milk"}
	resp, err = fx.orch.Handle(context.Background(), "u1", "m3", "any milk?")
	require.NoError(t, err)
	assert.Equal(t, "You have no milk in stock.", resp.Text)

	queryItem = nil
	resp, err = fx.orch.Handle(context.Background(), "u1", "m4", "what do I have")
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Current stock:")
	assert.Contains(t, resp.Text, "chicken: 2 kg")

	events, _ := fx.ledger.Events(10)
	assert.Len(t, events, 1, "queries never produce events")
}

func TestRecipeSuggestions(t *testing.T) {
	interp := &fakeInterpreter{
		interpret: func(text string) models.Intent {
			if text == "add" {
				return addIntent(chickenItem(2, models.UnitKilogram))
			}
			return models.Intent{Kind: models.IntentRecipe, Text: text}
		},
		recipes: []models.Recipe{{Name: "Nasi Goreng", Difficulty: "Easy", CookingTime: "20 minutes"}},
	}
	fx := newFixture(t, interp, conversation.Config{})

	// Empty inventory short-circuits without a model call.
	resp, err := fx.orch.Handle(context.Background(), "u1", "m1", "what can I cook")
	require.NoError(t, err)
	assert.Equal(t, msgNoIngredientsForRecipes, resp.Text)

	_, err = fx.orch.Handle(context.Background(), "u1", "m2", "add")
	require.NoError(t, err)

	resp, err = fx.orch.Handle(context.Background(), "u1", "m3", "what can I cook")
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Nasi Goreng")
}

func TestRecipeFailureFallsBack(t *testing.T) {
	interp := &fakeInterpreter{
		interpret: func(text string) models.Intent {
			if text == "add" {
				return addIntent(chickenItem(2, models.UnitKilogram))
			}
			return models.Intent{Kind: models.IntentRecipe, Text: text}
		},
		recipeErr: errors.New("timeout"),
	}
	fx := newFixture(t, interp, conversation.Config{})

	_, err := fx.orch.Handle(context.Background(), "u1", "m1", "add")
	require.NoError(t, err)

	resp, err := fx.orch.Handle(context.Background(), "u1", "m2", "what can I cook")
	require.NoError(t, err)
	assert.Equal(t, msgServiceDown, resp.Text)
}

func TestChatAndEmptyMessages(t *testing.T) {
	interp := &fakeInterpreter{interpret: func(text string) models.Intent {
		return models.Intent{Kind: models.IntentChat, Text: text}
	}}
	fx := newFixture(t, interp, conversation.Config{})

	resp, err := fx.orch.Handle(context.Background(), "u1", "m1", "hello!")
	require.NoError(t, err)
	assert.Equal(t, msgChat, resp.Text)

	resp, err = fx.orch.Handle(context.Background(), "u1", "m2", "   ")
	require.NoError(t, err)
	assert.Equal(t, msgEmpty, resp.Text)
}

type recordingNotifier struct {
	events []models.LedgerEvent
}

func (r *recordingNotifier) Publish(events []models.LedgerEvent) {
	r.events = append(r.events, events...)
}

func TestNotifierReceivesCommittedEvents(t *testing.T) {
	interp := &fakeInterpreter{interpret: func(string) models.Intent {
		return addIntent(chickenItem(2, models.UnitKilogram))
	}}

	db, err := database.InitDB("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	table, err := normalize.NewTable(nil)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	orch := New(interp, ledger.New(db), table, conversation.NewMachine(conversation.Config{}), WithNotifier(notifier))

	_, err = orch.Handle(context.Background(), "u1", "m1", "beli ayam")
	require.NoError(t, err)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "chicken", notifier.events[0].ItemKey)
	assert.Equal(t, 2.0, notifier.events[0].Delta)
}
