// Package normalize canonicalizes free-form ingredient names and quantity
// units. The alias table is append-mostly: safe for concurrent reads, with
// infrequent serialized writes.
package normalize

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"mygroceries/internal/models"
)

// AliasStore persists the alias map. The zero implementation (nil store)
// keeps the table purely in memory, which the tests use.
type AliasStore interface {
	LoadAliases() ([]models.ItemAlias, error)
	SaveAlias(alias models.ItemAlias) error
}

// Match describes how a raw name resolved to a canonical item.
type Match string

const (
	MatchExact Match = "exact"
	MatchFuzzy Match = "fuzzy"
)

// Table holds the canonical item vocabulary and its alias index.
type Table struct {
	mu      sync.RWMutex
	items   map[string]*models.CanonicalItem // canonical key -> item
	aliases map[string]string                // folded alias -> canonical key
	store   AliasStore
}

// NewTable builds a table from the persisted alias map, seeding the default
// vocabulary when the store is empty or absent.
func NewTable(store AliasStore) (*Table, error) {
	t := &Table{
		items:   make(map[string]*models.CanonicalItem),
		aliases: make(map[string]string),
		store:   store,
	}

	var rows []models.ItemAlias
	if store != nil {
		var err error
		rows, err = store.LoadAliases()
		if err != nil {
			return nil, &models.StoreError{Op: "load aliases", Err: err}
		}
	}
	if len(rows) == 0 {
		rows = seedAliases()
		if store != nil {
			for _, row := range rows {
				if err := store.SaveAlias(row); err != nil {
					return nil, &models.StoreError{Op: "seed aliases", Err: err}
				}
			}
		}
	}
	for _, row := range rows {
		t.index(row)
	}
	return t, nil
}

func (t *Table) index(row models.ItemAlias) {
	item, ok := t.items[row.ItemKey]
	if !ok {
		item = &models.CanonicalItem{
			Key:          row.ItemKey,
			DisplayName:  row.DisplayName,
			DefaultClass: models.UnitClass(row.DefaultClass),
		}
		if item.DisplayName == "" {
			item.DisplayName = row.ItemKey
		}
		if item.DefaultClass == "" {
			item.DefaultClass = models.ClassCount
		}
		t.items[row.ItemKey] = item
	}
	folded := Fold(row.Alias)
	if _, exists := t.aliases[folded]; !exists {
		t.aliases[folded] = row.ItemKey
		item.Aliases = append(item.Aliases, folded)
	}
}

// ResolveName maps a raw ingredient name onto a canonical item. Lookup is
// case- and diacritic-insensitive; a similarity fallback accepts close
// spellings but never registers them (no silent vocabulary growth).
func (t *Table) ResolveName(raw string) (models.CanonicalItem, Match, error) {
	folded := Fold(raw)
	if folded == "" {
		return models.CanonicalItem{}, "", &models.NormalizationError{Reason: models.ReasonUnknownItem, Raw: raw}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if key, ok := t.aliases[folded]; ok {
		return *t.items[key], MatchExact, nil
	}

	// Similarity fallback against every known alias. Ties break on the
	// lexicographically smaller alias so resolution stays deterministic.
	bestDist := -1
	bestKey := ""
	bestAlias := ""
	for alias, key := range t.aliases {
		d := levenshtein(folded, alias)
		if bestDist == -1 || d < bestDist || (d == bestDist && alias < bestAlias) {
			bestDist, bestKey, bestAlias = d, key, alias
		}
	}
	if bestKey != "" && bestDist <= maxEditDistance(folded) {
		return *t.items[bestKey], MatchFuzzy, nil
	}
	return models.CanonicalItem{}, "", &models.NormalizationError{Reason: models.ReasonUnknownItem, Raw: raw}
}

// Lookup returns the canonical item for a key, if it exists.
func (t *Table) Lookup(key string) (models.CanonicalItem, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	item, ok := t.items[key]
	if !ok {
		return models.CanonicalItem{}, false
	}
	return *item, true
}

// Register adds a new canonical item (or a new alias for an existing one)
// to the vocabulary and writes it through to the store. Registration is a
// deliberate operation: the orchestrator calls it only after a confirmed ADD
// of a previously-unknown item.
func (t *Table) Register(item models.CanonicalItem, alias string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	row := models.ItemAlias{
		Alias:        Fold(alias),
		ItemKey:      item.Key,
		DisplayName:  item.DisplayName,
		DefaultClass: string(item.DefaultClass),
	}
	if row.Alias == "" {
		return &models.NormalizationError{Reason: models.ReasonUnknownItem, Raw: alias}
	}
	if t.store != nil {
		if err := t.store.SaveAlias(row); err != nil {
			return &models.StoreError{Op: "save alias", Err: err}
		}
	}
	t.index(row)
	// The canonical key should always resolve to itself.
	if _, ok := t.aliases[Fold(item.Key)]; !ok {
		t.index(models.ItemAlias{
			Alias:        item.Key,
			ItemKey:      item.Key,
			DisplayName:  item.DisplayName,
			DefaultClass: string(item.DefaultClass),
		})
	}
	return nil
}

// Items returns a snapshot of the vocabulary, sorted by key.
func (t *Table) Items() []models.CanonicalItem {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.CanonicalItem, 0, len(t.items))
	for _, item := range t.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Fold lowercases a name and strips diacritics and surrounding space.
func Fold(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// maxEditDistance is the fixed acceptance threshold for the similarity
// fallback, scaled to the input length so short words stay strict.
func maxEditDistance(s string) int {
	if len([]rune(s)) <= 4 {
		return 1
	}
	return 2
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
