package Models

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the local sqlite database. It only ever holds the login
// flag; everything else lives in the directory.
func Connect(path string) (*gorm.DB, error) {
	connection, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local database %s: %w", path, err)
	}
	if err := connection.AutoMigrate(&Preference{}); err != nil {
		return nil, fmt.Errorf("migrate local database: %w", err)
	}
	log.Printf("Local database ready at %s", path)
	return connection, nil
}
