package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mygroceries/internal/models"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(nil)
	require.NoError(t, err)
	return table
}

func TestResolveName(t *testing.T) {
	table := newTestTable(t)

	tests := []struct {
		name      string
		raw       string
		wantKey   string
		wantMatch Match
	}{
		{"exact english", "chicken", "chicken", MatchExact},
		{"exact indonesian alias", "ayam", "chicken", MatchExact},
		{"case insensitive", "AYAM", "chicken", MatchExact},
		{"multi word alias", "daging sapi", "beef", MatchExact},
		{"fuzzy typo", "chickem", "chicken", MatchFuzzy},
		{"fuzzy short typo", "ayan", "chicken", MatchFuzzy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, match, err := table.ResolveName(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, item.Key)
			assert.Equal(t, tt.wantMatch, match)
		})
	}
}

func TestResolveNameUnknown(t *testing.T) {
	table := newTestTable(t)

	_, _, err := table.ResolveName("durian montong")
	var nerr *models.NormalizationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, models.ReasonUnknownItem, nerr.Reason)
	assert.Equal(t, "durian montong", nerr.Raw)
}

func TestFuzzyMatchDoesNotRegister(t *testing.T) {
	table := newTestTable(t)

	_, match, err := table.ResolveName("chickem")
	require.NoError(t, err)
	require.Equal(t, MatchFuzzy, match)

	// The typo must still resolve via the fuzzy path, not as a new alias.
	_, match, err = table.ResolveName("chickem")
	require.NoError(t, err)
	assert.Equal(t, MatchFuzzy, match)
}

func TestRegisterNewItem(t *testing.T) {
	table := newTestTable(t)

	item := models.CanonicalItem{Key: "durian", DisplayName: "Durian", DefaultClass: models.ClassCount}
	require.NoError(t, table.Register(item, "durian montong"))

	got, match, err := table.ResolveName("durian montong")
	require.NoError(t, err)
	assert.Equal(t, MatchExact, match)
	assert.Equal(t, "durian", got.Key)

	// The canonical key resolves to itself as well.
	got, _, err = table.ResolveName("durian")
	require.NoError(t, err)
	assert.Equal(t, "durian", got.Key)
}

func TestNormalizeUtterances(t *testing.T) {
	table := newTestTable(t)

	tests := []struct {
		raw      string
		wantKey  string
		wantQty  float64
		wantUnit models.Unit
	}{
		{"2kg ayam", "chicken", 2, models.UnitKilogram},
		{"2 kg ayam", "chicken", 2, models.UnitKilogram},
		{"2 ekor ayam", "chicken", 2, models.UnitAnimal},
		{"2 eggs", "egg", 2, models.UnitPiece},
		{"1.5 liter susu", "milk", 1.5, models.UnitLiter},
		{"beras", "rice", 1, models.UnitGram},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			item, qty, err := table.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, item.Key)
			assert.Equal(t, tt.wantQty, qty.Amount)
			assert.Equal(t, tt.wantUnit, qty.Unit)
		})
	}
}

func TestNormalizeUnknownUnit(t *testing.T) {
	table := newTestTable(t)

	_, _, err := table.NormalizeItem("ayam", 2, "barrel")
	var nerr *models.NormalizationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, models.ReasonUnknownUnit, nerr.Reason)
}

func TestUnitClassesNeverCoerced(t *testing.T) {
	table := newTestTable(t)

	massItem, massQty, err := table.Normalize("2kg ayam")
	require.NoError(t, err)
	countItem, countQty, err2 := table.Normalize("2 ekor ayam")
	require.NoError(t, err2)

	assert.Equal(t, massItem.Key, countItem.Key)

	massClass, err := massQty.Class()
	require.NoError(t, err)
	countClass, err := countQty.Class()
	require.NoError(t, err)
	assert.NotEqual(t, massClass, countClass)

	_, err = massQty.ConvertTo(countQty.Unit)
	assert.Error(t, err)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "creme fraiche", Fold("  Crème Fraîche "))
	assert.Equal(t, "ayam", Fold("AYAM"))
}
