package inventory

import (
	"context"
	"fmt"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

// StockReport resumen, lotes e historial reciente de un producto.
type StockReport struct {
	Product *entity.Product
	Items   []*entity.InventoryItem
	Events  []*entity.InventoryEvent
}

// ProductStock lee el estado de stock de un producto. Es solo lectura: no pasa por la cola.
func (s *Service) ProductStock(ctx context.Context, scopeID, productID string, eventLimit int) (*StockReport, error) {
	var out StockReport
	err := s.tx.Run(ctx, scopeID, func(tx repository.Tx) error {
		p, err := tx.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
		items, err := tx.Items.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		events, err := tx.Events.ListByProduct(ctx, productID, eventLimit)
		if err != nil {
			return err
		}
		out = StockReport{Product: p, Items: items, Events: events}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
