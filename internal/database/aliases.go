package database

import (
	"github.com/jinzhu/gorm"

	"mygroceries/internal/models"
)

// AliasDB persists the canonical-item alias map. It satisfies the
// normalize.AliasStore interface.
type AliasDB struct {
	db *gorm.DB
}

// NewAliasDB wraps a database connection for alias persistence.
func NewAliasDB(db *gorm.DB) *AliasDB {
	return &AliasDB{db: db}
}

// LoadAliases returns every persisted alias row in insertion order.
func (a *AliasDB) LoadAliases() ([]models.ItemAlias, error) {
	var rows []models.ItemAlias
	if err := a.db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveAlias inserts an alias row unless the alias already exists.
func (a *AliasDB) SaveAlias(row models.ItemAlias) error {
	return a.db.Where(models.ItemAlias{Alias: row.Alias}).
		Attrs(row).
		FirstOrCreate(&models.ItemAlias{}).Error
}
