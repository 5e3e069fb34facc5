package repository

import (
	"context"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// InventoryItemRepository puerto del libro de lotes. No existe Delete: los lotes solo cambian de estado.
type InventoryItemRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	Update(ctx context.Context, item *entity.InventoryItem) error
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error)
	// ListAvailableForUpdate lotes in_stock del producto en la ubicación, bloqueados para la transacción.
	ListAvailableForUpdate(ctx context.Context, productID, locationID string) ([]*entity.InventoryItem, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryItem, error)
	// SerialExists indica si ya hay un lote del producto con ese serial (cualquier estado).
	SerialExists(ctx context.Context, productID, serial string) (bool, error)
}
