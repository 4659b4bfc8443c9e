package database

import (
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL dialect
	_ "github.com/jinzhu/gorm/dialects/sqlite"   // SQLite dialect

	"mygroceries/internal/models"
)

// InitDB opens the database connection and migrates the core schema:
// inventory entries, the append-only ledger event log, and the alias map.
func InitDB(driver, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&models.InventoryEntry{},
		&models.LedgerEvent{},
		&models.ItemAlias{},
	).Error; err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
