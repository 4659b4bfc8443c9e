package models

// CanonicalItem is the normalized, deduplicated identity of an ingredient
// regardless of language or slang spelling.
type CanonicalItem struct {
	// Key is the stable lowercase identity, e.g. "chicken".
	Key string `json:"key"`
	// DisplayName is the user-facing name.
	DisplayName string `json:"display_name"`
	// Aliases are the known free-form spellings mapped onto this item,
	// including transliterated and slang forms (e.g. "ayam").
	Aliases []string `json:"aliases,omitempty"`
	// DefaultClass is the unit class assumed when an utterance states
	// no unit ("2 eggs" -> 2 pcs).
	DefaultClass UnitClass `json:"default_class"`
}
