package repository

import (
	"context"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// InventoryEventRepository puerto del historial de inventario (solo inserción).
type InventoryEventRepository interface {
	Create(ctx context.Context, event *entity.InventoryEvent) error
	ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.InventoryEvent, error)
}
