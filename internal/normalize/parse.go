package normalize

import (
	"strconv"
	"strings"
	"unicode"

	"mygroceries/internal/models"
)

// unitTokens maps recognized unit spellings to canonical units. The table is
// deliberately small and fixed; anything outside it is an UnknownUnit error.
var unitTokens = map[string]models.Unit{
	"g":         models.UnitGram,
	"gr":        models.UnitGram,
	"gram":      models.UnitGram,
	"grams":     models.UnitGram,
	"kg":        models.UnitKilogram,
	"kilo":      models.UnitKilogram,
	"kilogram":  models.UnitKilogram,
	"kilograms": models.UnitKilogram,
	"ml":        models.UnitMilliliter,
	"mililiter": models.UnitMilliliter,
	"l":         models.UnitLiter,
	"liter":     models.UnitLiter,
	"liters":    models.UnitLiter,
	"litre":     models.UnitLiter,
	"pcs":       models.UnitPiece,
	"pc":        models.UnitPiece,
	"piece":     models.UnitPiece,
	"pieces":    models.UnitPiece,
	"buah":      models.UnitPiece,
	"biji":      models.UnitPiece,
	"butir":     models.UnitEgg,
	"ekor":      models.UnitAnimal,
	"bungkus":   models.UnitPack,
	"pack":      models.UnitPack,
	"packs":     models.UnitPack,
	"packet":    models.UnitPack,
}

// ParseUnit maps a unit token to a canonical unit. An empty token defaults
// to the per-class default unit.
func ParseUnit(token string, class models.UnitClass) (models.Unit, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return models.DefaultUnit(class), nil
	}
	unit, ok := unitTokens[token]
	if !ok {
		return "", &models.NormalizationError{Reason: models.ReasonUnknownUnit, Raw: token}
	}
	return unit, nil
}

// NormalizeItem canonicalizes one (name, amount, unit) triple as produced by
// the understanding service.
func (t *Table) NormalizeItem(rawName string, amount float64, rawUnit string) (models.CanonicalItem, models.Quantity, error) {
	item, _, err := t.ResolveName(rawName)
	if err != nil {
		return models.CanonicalItem{}, models.Quantity{}, err
	}
	unit, err := ParseUnit(rawUnit, item.DefaultClass)
	if err != nil {
		return models.CanonicalItem{}, models.Quantity{}, err
	}
	return item, models.Quantity{Amount: amount, Unit: unit}, nil
}

// Normalize parses a compact utterance fragment like "2kg ayam",
// "2 ekor ayam" or "2 eggs" into a canonical item and quantity. A missing
// numeral means 1; a missing unit falls back to the item's class default.
func (t *Table) Normalize(raw string) (models.CanonicalItem, models.Quantity, error) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return models.CanonicalItem{}, models.Quantity{}, &models.NormalizationError{Reason: models.ReasonUnknownItem, Raw: raw}
	}

	amount := 1.0
	unitToken := ""

	// Leading numeral, possibly with an attached unit ("2kg").
	if num, rest, ok := splitNumeral(fields[0]); ok {
		parsed, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return models.CanonicalItem{}, models.Quantity{}, &models.NormalizationError{Reason: models.ReasonUnknownUnit, Raw: fields[0]}
		}
		amount = parsed
		fields = fields[1:]
		if rest != "" {
			unitToken = rest
		}
	}

	// Standalone unit token after the numeral.
	if unitToken == "" && len(fields) > 1 {
		if _, ok := unitTokens[strings.ToLower(fields[0])]; ok {
			unitToken = fields[0]
			fields = fields[1:]
		}
	}

	name := strings.Join(fields, " ")
	item, _, err := t.ResolveName(name)
	if err != nil {
		return models.CanonicalItem{}, models.Quantity{}, err
	}
	unit, err := ParseUnit(unitToken, item.DefaultClass)
	if err != nil {
		return models.CanonicalItem{}, models.Quantity{}, err
	}
	return item, models.Quantity{Amount: amount, Unit: unit}, nil
}

// splitNumeral splits a token into its leading numeral and the remainder:
// "2kg" -> ("2", "kg"), "1.5" -> ("1.5", "").
func splitNumeral(token string) (num, rest string, ok bool) {
	i := 0
	for i < len(token) {
		c := rune(token[i])
		if unicode.IsDigit(c) || c == '.' {
			i++
			continue
		}
		break
	}
	if i == 0 {
		return "", "", false
	}
	return token[:i], strings.ToLower(token[i:]), true
}
