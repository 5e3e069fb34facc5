package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeyValueStore almacenamiento clave/valor durable. SetItems escribe todas las claves o ninguna.
type KeyValueStore interface {
	GetItem(ctx context.Context, key string) ([]byte, bool, error)
	SetItem(ctx context.Context, key string, value []byte) error
	SetItems(ctx context.Context, items map[string][]byte) error
}

// KVEntry fila de la tabla kv.
type KVEntry struct {
	Key       string `gorm:"column:item_key;primaryKey;size:128"`
	Value     []byte `gorm:"column:item_value"`
	UpdatedAt time.Time
}

// TableName tabla kv.
func (KVEntry) TableName() string { return "kv" }

// KVStore KeyValueStore sobre la base local.
type KVStore struct {
	db *gorm.DB
}

var _ KeyValueStore = (*KVStore)(nil)

// NewKVStore construye el almacén sobre h.
func NewKVStore(h *Handle) *KVStore {
	return &KVStore{db: h.DB}
}

func (s *KVStore) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	var e KVEntry
	err := s.db.WithContext(ctx).Where("item_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("leer %s: %w", key, err)
	}
	return e.Value, true, nil
}

func (s *KVStore) SetItem(ctx context.Context, key string, value []byte) error {
	return upsert(s.db.WithContext(ctx), key, value)
}

func (s *KVStore) SetItems(ctx context.Context, items map[string][]byte) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for k, v := range items {
			if err := upsert(tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsert(db *gorm.DB, key string, value []byte) error {
	row := KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"item_value", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("escribir %s: %w", key, err)
	}
	return nil
}
