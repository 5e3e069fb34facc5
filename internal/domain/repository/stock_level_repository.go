package repository

import (
	"context"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// StockLevelRepository puerto del contador heredado sku@location.
//
// Deprecated: solo lo usa el modo legacy; el libro de lotes es la fuente de verdad.
type StockLevelRepository interface {
	// GetForUpdate devuelve el contador bloqueado; si no existe devuelve uno en cero.
	GetForUpdate(ctx context.Context, sku, locationID string) (*entity.StockLevel, error)
	Upsert(ctx context.Context, level *entity.StockLevel) error
}
