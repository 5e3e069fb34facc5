package inventory

import (
	"fmt"
	"slices"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// TakeReceivable descuenta de un lote de recepción la unidad serializada o la cantidad indicada.
// Falla con ErrInvalidInput si el lote ya no contiene lo solicitado.
func TakeReceivable(b *entity.PendingBatch, productID, locationID, serial string, qty int) error {
	if b.Kind != entity.BatchReceivable {
		return fmt.Errorf("%w: %s no es un lote de recepción", domain.ErrInvalidInput, b.BatchID)
	}
	if serial != "" {
		for i := range b.Items {
			it := &b.Items[i]
			if it.ProductID != productID || it.LocationID != locationID {
				continue
			}
			if idx := slices.Index(it.Serials, serial); idx >= 0 {
				it.Serials = slices.Delete(it.Serials, idx, idx+1)
				it.Quantity--
				pruneBatch(b)
				return nil
			}
		}
		return fmt.Errorf("%w: serial %s no está en el lote %s", domain.ErrInvalidInput, serial, b.BatchID)
	}

	available := 0
	for _, it := range b.Items {
		if it.ProductID == productID && it.LocationID == locationID && len(it.Serials) == 0 {
			available += it.Quantity
		}
	}
	if available < qty {
		return fmt.Errorf("%w: el lote %s tiene %d, se pidieron %d", domain.ErrInvalidInput, b.BatchID, available, qty)
	}
	remaining := qty
	for i := range b.Items {
		it := &b.Items[i]
		if remaining == 0 {
			break
		}
		if it.ProductID != productID || it.LocationID != locationID || len(it.Serials) > 0 {
			continue
		}
		take := min(it.Quantity, remaining)
		it.Quantity -= take
		remaining -= take
	}
	pruneBatch(b)
	return nil
}

// TakeDeliverable descuenta de un lote de entrega la cantidad apartada para el lote del libro indicado.
func TakeDeliverable(b *entity.PendingBatch, inventoryItemID string, qty int) error {
	if b.Kind != entity.BatchDeliverable {
		return fmt.Errorf("%w: %s no es un lote de entrega", domain.ErrInvalidInput, b.BatchID)
	}
	for i := range b.Items {
		it := &b.Items[i]
		idx := slices.Index(it.InventoryItemIDs, inventoryItemID)
		if idx < 0 {
			continue
		}
		if it.Quantity < qty {
			return fmt.Errorf("%w: el lote %s aparta %d de %s, se pidieron %d",
				domain.ErrInvalidInput, b.BatchID, it.Quantity, inventoryItemID, qty)
		}
		it.Quantity -= qty
		if it.Quantity == 0 {
			it.InventoryItemIDs = slices.Delete(it.InventoryItemIDs, idx, idx+1)
		}
		pruneBatch(b)
		return nil
	}
	return fmt.Errorf("%w: %s no está en el lote %s", domain.ErrInvalidInput, inventoryItemID, b.BatchID)
}

func pruneBatch(b *entity.PendingBatch) {
	b.Items = slices.DeleteFunc(b.Items, func(it entity.BatchItem) bool {
		return it.Quantity <= 0
	})
}
