package models

// IntentKind is the closed set of operations an utterance can resolve to.
type IntentKind string

const (
	IntentAdd      IntentKind = "ADD"
	IntentUse      IntentKind = "USE"
	IntentQuery    IntentKind = "QUERY"
	IntentRecipe   IntentKind = "RECIPE_REQUEST"
	IntentClearAll IntentKind = "CLEAR_ALL"
	IntentChat     IntentKind = "CHAT"
	IntentUnknown  IntentKind = "UNKNOWN"
)

// IntentItem is one normalized (item, quantity) pair inside an ADD or USE.
type IntentItem struct {
	Item     CanonicalItem `json:"item"`
	Quantity Quantity      `json:"quantity"`
	// RawName is the spelling the user actually typed.
	RawName string `json:"raw_name"`
	// NewItem marks a name that resolved to no known canonical item.
	// New items are never applied directly; they park as a pending
	// confirmation and only a confirmed ADD creates the item and
	// registers the alias.
	NewItem bool `json:"new_item,omitempty"`
	// FuzzyMatched marks a name accepted by the similarity step rather
	// than an exact alias hit. Fuzzy hits are reported to the user and
	// never auto-registered.
	FuzzyMatched bool `json:"fuzzy_matched,omitempty"`
}

// RejectedItem is an (item, quantity) pair that failed normalization and is
// surfaced back to the user instead of being silently dropped.
type RejectedItem struct {
	RawName string `json:"raw_name"`
	RawUnit string `json:"raw_unit,omitempty"`
	Reason  string `json:"reason"`
}

// Intent is the structured, validated interpretation of one user utterance.
// It is never persisted; only its effects are.
type Intent struct {
	Kind     IntentKind     `json:"kind"`
	Items    []IntentItem   `json:"items,omitempty"`
	Rejected []RejectedItem `json:"rejected,omitempty"`
	// QueryItem is set for QUERY of a specific item; nil means query-all.
	QueryItem *CanonicalItem `json:"query_item,omitempty"`
	// Text carries the raw utterance for CHAT and UNKNOWN.
	Text string `json:"text,omitempty"`
	// ServiceUnavailable distinguishes "the understanding service failed"
	// from "the model produced nothing usable".
	ServiceUnavailable bool `json:"service_unavailable,omitempty"`
}

// Destructive reports whether the intent must be gated behind an explicit
// user confirmation before it may reach the ledger.
func (in Intent) Destructive() bool {
	return in.Kind == IntentClearAll
}

// Recipe is one validated recipe suggestion from the understanding service.
type Recipe struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	IngredientsUsed       []string `json:"ingredients_used"`
	AdditionalIngredients []string `json:"additional_ingredients"`
	CookingTime           string   `json:"cooking_time"`
	Difficulty            string   `json:"difficulty"`
	Instructions          string   `json:"instructions"`
}
