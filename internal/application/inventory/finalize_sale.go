package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/inventory"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

// FinalizeSale entrega lotes del libro contra un pedido de venta: verifica que sigan disponibles,
// los marca como entregados (o los descuenta si es parcial), resta del resumen, descuenta los
// lotes de entrega nombrados y avanza el estado del pedido.
func (s *Service) FinalizeSale(ctx context.Context, scopeID string, meta Meta, op entity.FinalizeSale) error {
	if err := validateFinalizeSale(op); err != nil {
		return err
	}
	return s.run(ctx, scopeID, meta, func(tx repository.Tx, now time.Time) error {
		return s.finalizeSale(ctx, tx, meta, op, now)
	})
}

func validateFinalizeSale(op entity.FinalizeSale) error {
	if op.SalesOrderID == "" {
		return invalid("pedido de venta obligatorio")
	}
	if len(op.Units) == 0 {
		return invalid("no hay unidades para entregar")
	}
	for i, u := range op.Units {
		if u.InventoryItemID == "" || u.ProductID == "" {
			return invalid("unidad %d: lote y producto son obligatorios", i)
		}
		if u.Quantity <= 0 {
			return invalid("unidad %d: cantidad debe ser positiva", i)
		}
	}
	return nil
}

func (s *Service) finalizeSale(ctx context.Context, tx repository.Tx, meta Meta, op entity.FinalizeSale, now time.Time) error {
	// Lecturas
	order, err := tx.Sales.GetForUpdate(ctx, op.SalesOrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("%w: pedido %s", domain.ErrNotFound, op.SalesOrderID)
	}
	if order.Status == entity.DocumentFinalized {
		return fmt.Errorf("%w: pedido %s", domain.ErrAlreadyFinalized, order.ID)
	}
	ids := make([]string, len(op.Units))
	for i, u := range op.Units {
		ids[i] = u.ProductID
	}
	products, err := lockProducts(ctx, tx, ids...)
	if err != nil {
		return err
	}
	lots := newLotSet(tx)
	items := map[string]*entity.InventoryItem{}
	batches := map[string]*entity.PendingBatch{}
	for i, u := range op.Units {
		if _, ok := items[u.InventoryItemID]; !ok {
			item, err := tx.Items.GetForUpdate(ctx, u.InventoryItemID)
			if err != nil {
				return err
			}
			if item == nil {
				return fmt.Errorf("%w: lote %s", domain.ErrNotFound, u.InventoryItemID)
			}
			items[item.ID] = item
		}
		if items[u.InventoryItemID].ProductID != u.ProductID {
			return invalid("unidad %d: el lote %s no es del producto %s", i, u.InventoryItemID, u.ProductID)
		}
		if u.BatchID == "" {
			continue
		}
		if _, ok := batches[u.BatchID]; !ok {
			b, err := tx.Batches.GetForUpdate(ctx, u.BatchID)
			if err != nil {
				return err
			}
			if b == nil {
				return invalid("lote de entrega %s no existe o ya fue conciliado", u.BatchID)
			}
			if b.SalesOrderID != "" && b.SalesOrderID != order.ID {
				return invalid("el lote %s pertenece al pedido %s", b.BatchID, b.SalesOrderID)
			}
			batches[u.BatchID] = b
		}
	}

	// Cálculo en memoria
	var events []*entity.InventoryEvent
	touched := map[string]bool{}
	for i, u := range op.Units {
		item := items[u.InventoryItemID]
		p := products[u.ProductID]
		if !item.Available() || item.Quantity < u.Quantity {
			return fmt.Errorf("%w: lote %s ya no tiene %d disponibles", domain.ErrInsufficientStock, item.ID, u.Quantity)
		}
		if err := deliverOnLines(order, u.ProductID, u.Quantity); err != nil {
			return fmt.Errorf("unidad %d: %w", i, err)
		}
		if b := batches[u.BatchID]; b != nil {
			if err := inventory.TakeDeliverable(b, item.ID, u.Quantity); err != nil {
				return err
			}
		}
		if err := p.Stock.Apply(item.LocationID, -u.Quantity); err != nil {
			return fmt.Errorf("%w: resumen de %s: %s", domain.ErrInsufficientStock, p.SKU, err.Error())
		}
		touched[p.ID] = true

		location := item.LocationID
		consume(inventory.Allocation{Item: item, Quantity: u.Quantity}, meta, &entity.DeliveryDetails{
			SalesOrderID: order.ID,
			BatchID:      u.BatchID,
			DeliveredBy:  meta.UserName,
			DeliveredAt:  now,
		}, now)
		lots.markChanged(item)

		e := newEvent(meta, entity.EventSaleDispatched, now)
		e.ProductID, e.SKU, e.InventoryItemID, e.Serial = p.ID, p.SKU, item.ID, item.Serial
		e.Quantity, e.FromLocationID, e.ReferenceID, e.UnitCost = u.Quantity, location, order.ID, item.UnitCost
		events = append(events, e)
	}
	order.Status = inventory.SalesStatus(order)
	order.UpdatedAt = now
	if order.Status == entity.DocumentFinalized {
		order.FinalizedAt = &now
	}

	// Escrituras
	if err := lots.flush(ctx); err != nil {
		return err
	}
	for id, b := range batches {
		if b.Empty() {
			if err := tx.Batches.Delete(ctx, id); err != nil {
				return err
			}
			continue
		}
		b.UpdatedAt = now
		if err := tx.Batches.Update(ctx, b); err != nil {
			return err
		}
	}
	if err := saveSummaries(ctx, tx, products, touched); err != nil {
		return err
	}
	if err := tx.Sales.Update(ctx, order); err != nil {
		return err
	}
	s.log.Info().Str("sales_order_id", order.ID).Str("status", string(order.Status)).
		Int("units", len(op.Units)).Msg("pedido de venta entregado")
	return insertEvents(ctx, tx, events)
}

// deliverOnLines reparte qty entre las líneas pendientes del producto. Entregar de más es ErrInvalidInput.
func deliverOnLines(order *entity.SalesOrder, productID string, qty int) error {
	pending := 0
	for _, l := range order.Lines {
		if l.ProductID == productID {
			pending += max(l.Quantity-l.DeliveredQty, 0)
		}
	}
	if pending < qty {
		return invalid("el pedido %s tiene %d pendientes de %s, se entregan %d", order.ID, pending, productID, qty)
	}
	remaining := qty
	for i := range order.Lines {
		l := &order.Lines[i]
		if remaining == 0 {
			break
		}
		if l.ProductID != productID || l.DeliveredQty >= l.Quantity {
			continue
		}
		take := min(l.Quantity-l.DeliveredQty, remaining)
		l.DeliveredQty += take
		remaining -= take
	}
	return nil
}
