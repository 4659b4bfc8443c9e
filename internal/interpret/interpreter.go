// Package interpret wraps the external understanding service and validates
// its best-effort structured payload into a typed Intent. The payload is
// untrusted input: nothing crosses into the ledger unvalidated.
package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"mygroceries/internal/models"
	"mygroceries/internal/normalize"
)

// rawPayload is the shape the understanding service is asked to produce.
type rawPayload struct {
	Action string    `json:"action"`
	Items  []rawItem `json:"items"`
}

type rawItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Interpreter maps raw utterances to validated intents.
type Interpreter struct {
	model       llms.Model
	table       *normalize.Table
	timeout     time.Duration
	temperature float64
	maxTokens   int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithTimeout bounds each call to the understanding service.
func WithTimeout(d time.Duration) Option {
	return func(i *Interpreter) { i.timeout = d }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(i *Interpreter) { i.temperature = t }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(i *Interpreter) { i.maxTokens = n }
}

// New creates an interpreter over a langchaingo model and the alias table.
func New(model llms.Model, table *normalize.Table, opts ...Option) *Interpreter {
	i := &Interpreter{
		model:       model,
		table:       table,
		timeout:     15 * time.Second,
		temperature: 0.2,
		maxTokens:   1024,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Interpret asks the understanding service for a structured reading of the
// utterance and validates it into an Intent. Failures never propagate as
// errors: transport problems yield UNKNOWN with ServiceUnavailable set, and
// malformed payloads degrade to UNKNOWN.
func (i *Interpreter) Interpret(ctx context.Context, text string, snapshot []models.InventoryEntry) models.Intent {
	content, err := i.complete(ctx, buildIntentPrompt(text, snapshot))
	if err != nil {
		log.Printf("interpret: understanding service unavailable: %v", err)
		return models.Intent{Kind: models.IntentUnknown, Text: text, ServiceUnavailable: true}
	}

	var payload rawPayload
	if err := json.Unmarshal([]byte(extractJSON(content)), &payload); err != nil {
		log.Printf("interpret: malformed payload: %v", err)
		return models.Intent{Kind: models.IntentUnknown, Text: text}
	}
	return i.validate(text, payload)
}

// SuggestRecipes asks for recipe suggestions grounded in the current stock.
// Unlike Interpret, callers see the failure so they can pick a fallback
// reply; no conversation state depends on the outcome.
func (i *Interpreter) SuggestRecipes(ctx context.Context, snapshot []models.InventoryEntry) ([]models.Recipe, error) {
	content, err := i.complete(ctx, buildRecipePrompt(snapshot))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Recipes []models.Recipe `json:"recipes"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &payload); err != nil {
		return nil, errors.New("understanding service returned malformed recipes")
	}
	recipes := payload.Recipes[:0]
	for _, r := range payload.Recipes {
		if r.Name == "" {
			continue
		}
		recipes = append(recipes, r)
	}
	if len(recipes) > 3 {
		recipes = recipes[:3]
	}
	return recipes, nil
}

func (i *Interpreter) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	resp, err := i.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	},
		llms.WithTemperature(i.temperature),
		llms.WithMaxTokens(i.maxTokens),
	)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", errors.New("empty response from understanding service")
	}
	return resp.Choices[0].Content, nil
}

// validate turns the untrusted payload into the closed Intent variant.
// Every item is normalized independently; the valid subset survives and the
// invalid subset is reported back, never silently dropped.
func (i *Interpreter) validate(text string, payload rawPayload) models.Intent {
	action := strings.ToUpper(strings.TrimSpace(payload.Action))
	switch action {
	case "ADD", "USE":
		kind := models.IntentAdd
		if action == "USE" {
			kind = models.IntentUse
		}
		items, rejected := i.normalizeItems(payload.Items, kind)
		return models.Intent{Kind: kind, Items: items, Rejected: rejected, Text: text}

	case "QUERY":
		if len(payload.Items) == 0 || strings.TrimSpace(payload.Items[0].Name) == "" {
			return models.Intent{Kind: models.IntentQuery, Text: text}
		}
		raw := payload.Items[0].Name
		item, _, err := i.table.ResolveName(raw)
		if err != nil {
			return models.Intent{
				Kind:     models.IntentQuery,
				Rejected: []models.RejectedItem{{RawName: raw, Reason: string(models.ReasonUnknownItem)}},
				Text:     text,
			}
		}
		return models.Intent{Kind: models.IntentQuery, QueryItem: &item, Text: text}

	case "QUERY_ALL":
		return models.Intent{Kind: models.IntentQuery, Text: text}
	case "RECIPE":
		return models.Intent{Kind: models.IntentRecipe, Text: text}
	case "CLEAR_ALL":
		return models.Intent{Kind: models.IntentClearAll, Text: text}
	case "UNRELATED":
		return models.Intent{Kind: models.IntentChat, Text: text}
	default:
		return models.Intent{Kind: models.IntentUnknown, Text: text}
	}
}

func (i *Interpreter) normalizeItems(raws []rawItem, kind models.IntentKind) ([]models.IntentItem, []models.RejectedItem) {
	var items []models.IntentItem
	var rejected []models.RejectedItem

	for _, raw := range raws {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			continue
		}
		if raw.Quantity <= 0 {
			rejected = append(rejected, models.RejectedItem{RawName: name, RawUnit: raw.Unit, Reason: "invalid_quantity"})
			continue
		}

		item, match, err := i.table.ResolveName(name)
		var nerr *models.NormalizationError
		switch {
		case err == nil:
			unit, uerr := normalize.ParseUnit(raw.Unit, item.DefaultClass)
			if uerr != nil {
				rejected = append(rejected, models.RejectedItem{RawName: name, RawUnit: raw.Unit, Reason: string(models.ReasonUnknownUnit)})
				continue
			}
			items = append(items, models.IntentItem{
				Item:         item,
				Quantity:     models.Quantity{Amount: raw.Quantity, Unit: unit},
				RawName:      name,
				FuzzyMatched: match == normalize.MatchFuzzy,
			})

		case errors.As(err, &nerr) && nerr.Reason == models.ReasonUnknownItem && kind == models.IntentAdd:
			// An unseen name inside an ADD is a proposal for a new
			// canonical item. It parks for confirmation; only a
			// confirmed ADD registers the alias.
			proposed, perr := proposeItem(name, raw.Unit)
			if perr != nil {
				rejected = append(rejected, models.RejectedItem{RawName: name, RawUnit: raw.Unit, Reason: string(models.ReasonUnknownUnit)})
				continue
			}
			proposed.Quantity.Amount = raw.Quantity
			items = append(items, proposed)

		default:
			rejected = append(rejected, models.RejectedItem{RawName: name, RawUnit: raw.Unit, Reason: string(models.ReasonUnknownItem)})
		}
	}
	return items, rejected
}

// proposeItem drafts a canonical item for a name the vocabulary has never
// seen. The unit class is inferred from the stated unit, defaulting to count.
func proposeItem(name, rawUnit string) (models.IntentItem, error) {
	class := models.ClassCount
	if strings.TrimSpace(rawUnit) != "" {
		unit, err := normalize.ParseUnit(rawUnit, models.ClassCount)
		if err != nil {
			return models.IntentItem{}, err
		}
		c, err := unit.Class()
		if err != nil {
			return models.IntentItem{}, err
		}
		class = c
	}

	key := normalize.Fold(name)
	item := models.CanonicalItem{Key: key, DisplayName: name, DefaultClass: class}
	unit, err := normalize.ParseUnit(rawUnit, class)
	if err != nil {
		return models.IntentItem{}, err
	}
	return models.IntentItem{
		Item:     item,
		Quantity: models.Quantity{Unit: unit},
		RawName:  name,
		NewItem:  true,
	}, nil
}

// extractJSON strips markdown fences and surrounding prose from a model
// response, keeping the outermost JSON object.
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start == -1 || end == -1 || end < start {
		return content
	}
	return content[start : end+1]
}
