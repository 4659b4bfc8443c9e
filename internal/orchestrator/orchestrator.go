// Package orchestrator routes each incoming message through the conversation
// state machine, the understanding service and the ledger. Messages from the
// same user are processed strictly in order; the understanding call itself
// runs outside the per-user lock so a slow model never blocks other users'
// confirmations.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mygroceries/internal/conversation"
	"mygroceries/internal/ledger"
	"mygroceries/internal/models"
	"mygroceries/internal/normalize"
)

// Interpreter is the understanding boundary the orchestrator talks to.
type Interpreter interface {
	Interpret(ctx context.Context, text string, snapshot []models.InventoryEntry) models.Intent
	SuggestRecipes(ctx context.Context, snapshot []models.InventoryEntry) ([]models.Recipe, error)
}

// Notifier receives committed ledger events, e.g. for a live event feed.
type Notifier interface {
	Publish(events []models.LedgerEvent)
}

// Response is the bot's reply to one message.
type Response struct {
	Text                 string `json:"reply"`
	AwaitingConfirmation bool   `json:"awaiting_confirmation"`
}

// Orchestrator coordinates one message end to end.
type Orchestrator struct {
	interp   Interpreter
	ledger   *ledger.Ledger
	table    *normalize.Table
	machine  *conversation.Machine
	notifier Notifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier wires a sink for committed ledger events.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// New assembles an orchestrator over its collaborators.
func New(interp Interpreter, l *ledger.Ledger, table *normalize.Table, machine *conversation.Machine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		interp:  interp,
		ledger:  l,
		table:   table,
		machine: machine,
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle processes one user message and returns the reply. Store failures are
// the only errors; everything else degrades into a user-facing reply.
func (o *Orchestrator) Handle(ctx context.Context, userID, messageID, text string) (Response, error) {
	if strings.TrimSpace(text) == "" {
		return Response{Text: msgEmpty}, nil
	}
	if messageID == "" {
		messageID = uuid.NewString()
	}

	lock := o.lockFor(userID)
	lock.Lock()
	resp, handled, err := o.answerPending(userID, messageID, text)
	lock.Unlock()
	if handled {
		return resp, err
	}

	snapshot, err := o.ledger.Snapshot()
	if err != nil {
		return Response{}, err
	}
	intent := o.interp.Interpret(ctx, text, snapshot)

	// Recipe suggestions are read-only; no reason to hold the user lock
	// through a second model call.
	if intent.Kind == models.IntentRecipe && !intent.ServiceUnavailable {
		return o.suggestRecipes(ctx, snapshot)
	}

	lock.Lock()
	defer lock.Unlock()
	return o.dispatch(userID, messageID, text, intent)
}

// HandleExtracted processes text extracted from a receipt or voice note.
// Extracted items are never applied directly: the extraction pipeline is
// lossy, so the resulting ADD always parks for confirmation.
func (o *Orchestrator) HandleExtracted(ctx context.Context, userID, messageID, text string) (Response, error) {
	if strings.TrimSpace(text) == "" {
		return Response{Text: msgNothingExtracted}, nil
	}
	if messageID == "" {
		messageID = uuid.NewString()
	}

	snapshot, err := o.ledger.Snapshot()
	if err != nil {
		return Response{}, err
	}
	intent := o.interp.Interpret(ctx, text, snapshot)
	if intent.ServiceUnavailable {
		return Response{Text: msgServiceDown}, nil
	}
	if intent.Kind != models.IntentAdd || len(intent.Items) == 0 {
		return Response{Text: msgNothingExtracted}, nil
	}

	lock := o.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	prompt := fmt.Sprintf("I read these items: %s. Add them to your inventory?", describeItems(intent.Items))
	o.machine.Park(userID, conversation.Pending{
		Intent: intent,
		Reason: conversation.ReasonReceiptImport,
		Prompt: prompt,
	})
	return Response{Text: prompt + " (yes/no)", AwaitingConfirmation: true}, nil
}

func (o *Orchestrator) lockFor(userID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[userID] = l
	}
	return l
}

// answerPending resolves a message that arrives while a confirmation is
// outstanding. A reply that is neither yes nor no implicitly cancels the
// pending intent and falls through to normal processing, unless explicit
// cancellation is configured.
func (o *Orchestrator) answerPending(userID, messageID, text string) (Response, bool, error) {
	pending, ok := o.machine.Pending(userID)
	if !ok {
		return Response{}, false, nil
	}

	switch conversation.ClassifyReply(text) {
	case conversation.ReplyAffirmative:
		o.machine.Resolve(userID)
		resp, err := o.applyConfirmed(userID, messageID, pending)
		return resp, true, err
	case conversation.ReplyNegative:
		o.machine.Cancel(userID)
		return Response{Text: msgCancelled}, true, nil
	default:
		if o.machine.RequireExplicitCancel() {
			return Response{
				Text:                 fmt.Sprintf("Still waiting for a yes or no. %s", pending.Prompt),
				AwaitingConfirmation: true,
			}, true, nil
		}
		o.machine.Cancel(userID)
		return Response{}, false, nil
	}
}

// applyConfirmed executes a previously parked intent. For a confirmed ADD,
// proposed new items become canonical vocabulary first; this is the only
// place aliases are registered.
func (o *Orchestrator) applyConfirmed(userID, messageID string, p conversation.Pending) (Response, error) {
	if p.Intent.Kind == models.IntentAdd {
		for _, it := range p.Intent.Items {
			if !it.NewItem {
				continue
			}
			if err := o.table.Register(it.Item, it.RawName); err != nil {
				return Response{}, err
			}
		}
	}
	return o.applyMutation(userID, messageID, p.Intent)
}

func (o *Orchestrator) dispatch(userID, messageID, text string, intent models.Intent) (Response, error) {
	if intent.ServiceUnavailable {
		// No state transition: the user's message was not understood,
		// it just could not be processed right now.
		return Response{Text: msgServiceDown}, nil
	}

	switch intent.Kind {
	case models.IntentAdd:
		if names := newItemNames(intent.Items); len(names) > 0 {
			prompt := fmt.Sprintf("I don't recognize %s. Add as new item(s)?", strings.Join(names, ", "))
			o.machine.Park(userID, conversation.Pending{
				Intent: intent,
				Reason: conversation.ReasonNewItems,
				Prompt: prompt,
			})
			return Response{Text: prompt + " (yes/no)", AwaitingConfirmation: true}, nil
		}
		if len(intent.Items) == 0 {
			return Response{Text: formatRejections(intent.Rejected, msgNothingToAdd)}, nil
		}
		return o.applyMutation(userID, messageID, intent)

	case models.IntentUse:
		if len(intent.Items) == 0 {
			return Response{Text: formatRejections(intent.Rejected, msgNothingToUse)}, nil
		}
		return o.applyMutation(userID, messageID, intent)

	case models.IntentQuery:
		return o.query(intent)

	case models.IntentClearAll:
		return o.parkClearAll(userID, intent)

	case models.IntentChat:
		return Response{Text: msgChat}, nil

	default:
		// The model could not classify the message, but a wipe request
		// must never slip through as small talk.
		if conversation.LooksDestructive(text) {
			return o.parkClearAll(userID, models.Intent{Kind: models.IntentClearAll, Text: text})
		}
		return Response{Text: msgUnknown}, nil
	}
}

func (o *Orchestrator) parkClearAll(userID string, intent models.Intent) (Response, error) {
	snapshot, err := o.ledger.Snapshot()
	if err != nil {
		return Response{}, err
	}
	if len(snapshot) == 0 {
		return Response{Text: msgAlreadyEmpty}, nil
	}
	prompt := fmt.Sprintf("This removes all %d item(s) from your inventory. Are you sure?", len(snapshot))
	o.machine.Park(userID, conversation.Pending{
		Intent: intent,
		Reason: conversation.ReasonClearAll,
		Prompt: prompt,
	})
	return Response{Text: prompt + " (yes/no)", AwaitingConfirmation: true}, nil
}

func (o *Orchestrator) applyMutation(userID, messageID string, intent models.Intent) (Response, error) {
	result, err := o.ledger.Apply(userID, messageID, intent)
	if err != nil {
		return Response{}, err
	}
	if o.notifier != nil && len(result.Events) > 0 {
		o.notifier.Publish(result.Events)
	}
	snapshot, err := o.ledger.Snapshot()
	if err != nil {
		return Response{}, err
	}
	return Response{Text: formatApply(intent, result, snapshot)}, nil
}

func (o *Orchestrator) query(intent models.Intent) (Response, error) {
	if len(intent.Rejected) > 0 {
		return Response{Text: fmt.Sprintf("I don't know an item called %q.", intent.Rejected[0].RawName)}, nil
	}
	if intent.QueryItem == nil {
		snapshot, err := o.ledger.Snapshot()
		if err != nil {
			return Response{}, err
		}
		return Response{Text: formatStock(snapshot)}, nil
	}

	entry, err := o.ledger.Query(intent.QueryItem.Key)
	if err != nil {
		return Response{}, err
	}
	if entry == nil || entry.Amount <= 0 {
		return Response{Text: fmt.Sprintf("You have no %s in stock.", intent.QueryItem.DisplayName)}, nil
	}
	return Response{Text: fmt.Sprintf("You have %g %s of %s.", entry.Amount, entry.Unit, intent.QueryItem.DisplayName)}, nil
}

func (o *Orchestrator) suggestRecipes(ctx context.Context, snapshot []models.InventoryEntry) (Response, error) {
	if len(snapshot) == 0 {
		return Response{Text: msgNoIngredientsForRecipes}, nil
	}
	recipes, err := o.interp.SuggestRecipes(ctx, snapshot)
	if err != nil || len(recipes) == 0 {
		return Response{Text: msgServiceDown}, nil
	}
	return Response{Text: formatRecipes(recipes)}, nil
}

func newItemNames(items []models.IntentItem) []string {
	var names []string
	for _, it := range items {
		if it.NewItem {
			names = append(names, it.RawName)
		}
	}
	return names
}
