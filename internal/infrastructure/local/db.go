// Package local persiste el estado del sidecar en un archivo SQLite junto a la aplicación:
// la cola de acciones pendientes, las acciones muertas y las credenciales cacheadas.
package local

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// FileName nombre del archivo dentro del directorio local.
const FileName = "syncd.db"

// Handle conexión gorm al archivo local.
type Handle struct {
	DB   *gorm.DB
	Path string
}

// OpenAt abre (o crea) la base local en dir y migra sus tablas.
func OpenAt(dir string) (*Handle, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio local: %w", err)
	}
	dbPath := filepath.Join(dir, FileName)
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("abrir %s: %w", dbPath, err)
	}
	// SQLite admite un solo escritor; una conexión evita SQLITE_BUSY entre goroutines.
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(gdb); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Handle{DB: gdb, Path: dbPath}, nil
}

// Migrate crea las tablas locales.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&KVEntry{}); err != nil {
		return fmt.Errorf("AutoMigrate error: %w", err)
	}
	return nil
}

// Close cierra la conexión.
func (h *Handle) Close() error {
	sqlDB, err := h.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
