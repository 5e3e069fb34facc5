package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/sequence"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/inventory"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

// StockOut registra una salida. En modo direct (por defecto) descuenta del libro en orden FIFO
// (o por serial) y del resumen. En modo deliverable solo aparta lotes en un lote pendiente BO.
func (s *Service) StockOut(ctx context.Context, scopeID string, meta Meta, op entity.StockOut) error {
	if err := validateStockOut(op); err != nil {
		return err
	}
	return s.run(ctx, scopeID, meta, func(tx repository.Tx, now time.Time) error {
		switch op.Mode {
		case entity.ModeDeliverable:
			return s.stockOutDeliverable(ctx, tx, meta, op, now)
		case entity.ModeLegacy:
			return stockOutLegacy(ctx, tx, meta, op, now)
		default:
			return stockOutDirect(ctx, tx, meta, op, now)
		}
	})
}

func validateStockOut(op entity.StockOut) error {
	switch op.Mode {
	case "", entity.ModeDirect, entity.ModeDeliverable, entity.ModeLegacy:
	default:
		return invalid("modo %q no válido para salida", op.Mode)
	}
	if len(op.Items) == 0 {
		return invalid("la salida no tiene renglones")
	}
	for i, it := range op.Items {
		if err := checkLine(i, it.ProductID, it.SKU, it.Quantity, it.Serials, it.LocationID); err != nil {
			return err
		}
		if op.Mode == entity.ModeDeliverable && it.InventoryItemID == "" {
			return invalid("renglón %d: la entrega requiere el lote del libro", i)
		}
	}
	if op.Mode == entity.ModeDeliverable && op.SalesOrderID == "" {
		return invalid("la entrega requiere pedido de venta")
	}
	return nil
}

func productIDsOut(items []entity.StockOutItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	return ids
}

func stockOutDirect(ctx context.Context, tx repository.Tx, meta Meta, op entity.StockOut, now time.Time) error {
	// Lecturas
	products, err := lockProducts(ctx, tx, productIDsOut(op.Items)...)
	if err != nil {
		return err
	}
	lots := newLotSet(tx)
	for i, it := range op.Items {
		p := products[it.ProductID]
		if p.SKU != it.SKU {
			return invalid("renglón %d: sku %s no corresponde al producto %s", i, it.SKU, p.ID)
		}
		if err := checkSerialized(i, p.SKU, p.IsSerialized, it.Serials); err != nil {
			return err
		}
		if _, err := lots.get(ctx, it.ProductID, it.LocationID); err != nil {
			return err
		}
	}

	// Cálculo en memoria
	var events []*entity.InventoryEvent
	touched := map[string]bool{}
	for _, it := range op.Items {
		p := products[it.ProductID]
		available, _ := lots.get(ctx, it.ProductID, it.LocationID)
		allocs, err := allocate(available, it.Quantity, it.Serials)
		if err != nil {
			return fmt.Errorf("salida de %s en %s: %w", it.SKU, it.LocationID, err)
		}
		if err := p.Stock.Apply(it.LocationID, -it.Units()); err != nil {
			return fmt.Errorf("%w: resumen de %s: %s", domain.ErrInsufficientStock, it.SKU, err.Error())
		}
		touched[p.ID] = true
		for _, a := range allocs {
			consume(a, meta, nil, now)
			lots.markChanged(a.Item)
			e := newEvent(meta, entity.EventSale, now)
			e.ProductID, e.SKU, e.InventoryItemID, e.Serial = p.ID, p.SKU, a.Item.ID, a.Item.Serial
			e.Quantity, e.FromLocationID, e.ReferenceID, e.UnitCost = a.Quantity, it.LocationID, op.SalesOrderID, a.Item.UnitCost
			events = append(events, e)
		}
	}

	// Escrituras
	if err := lots.flush(ctx); err != nil {
		return err
	}
	if err := saveSummaries(ctx, tx, products, touched); err != nil {
		return err
	}
	return insertEvents(ctx, tx, events)
}

// allocate elige lotes por serial si se indicaron, si no en orden FIFO.
func allocate(available []*entity.InventoryItem, qty int, serials []string) ([]inventory.Allocation, error) {
	if len(serials) > 0 {
		return inventory.AllocateSerials(available, serials)
	}
	return inventory.AllocateFIFO(available, qty)
}

// consume aplica una asignación de salida: el consumo total marca el lote como entregado
// conservando su cantidad; el parcial solo la descuenta.
func consume(a inventory.Allocation, meta Meta, delivery *entity.DeliveryDetails, now time.Time) {
	a.Item.UpdatedAt = now
	if !a.Full() {
		a.Item.Quantity -= a.Quantity
		return
	}
	a.Item.Status = entity.ItemDelivered
	if delivery == nil {
		delivery = &entity.DeliveryDetails{DeliveredBy: meta.UserName, DeliveredAt: now}
	}
	a.Item.Delivery = delivery
}

func (s *Service) stockOutDeliverable(ctx context.Context, tx repository.Tx, meta Meta, op entity.StockOut, now time.Time) error {
	// Lecturas
	order, err := tx.Sales.GetByID(ctx, op.SalesOrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("%w: pedido %s", domain.ErrNotFound, op.SalesOrderID)
	}
	if order.Status == entity.DocumentFinalized {
		return fmt.Errorf("%w: pedido %s", domain.ErrAlreadyFinalized, order.ID)
	}
	items := make(map[string]*entity.InventoryItem, len(op.Items))
	for i, it := range op.Items {
		item, ok := items[it.InventoryItemID]
		if !ok {
			if item, err = tx.Items.GetForUpdate(ctx, it.InventoryItemID); err != nil {
				return err
			}
			if item == nil {
				return fmt.Errorf("%w: lote %s", domain.ErrNotFound, it.InventoryItemID)
			}
			items[it.InventoryItemID] = item
		}
		if item.ProductID != it.ProductID || item.LocationID != it.LocationID {
			return invalid("renglón %d: el lote %s no corresponde a %s en %s", i, item.ID, it.SKU, it.LocationID)
		}
	}

	// Cálculo en memoria: cada lote puede apartarse hasta su cantidad disponible.
	reserved := map[string]int{}
	for _, it := range op.Items {
		item := items[it.InventoryItemID]
		reserved[item.ID] += it.Units()
		if !item.Available() || reserved[item.ID] > item.Quantity {
			return fmt.Errorf("%w: lote %s tiene %d disponibles", domain.ErrInsufficientStock, item.ID, item.Quantity)
		}
	}

	batchID := op.BatchID
	if batchID == "" {
		if batchID, err = sequence.Next(ctx, tx.Counters, sequence.PrefixDeliverable, now); err != nil {
			return err
		}
	} else if existing, err := tx.Batches.GetForUpdate(ctx, batchID); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("%w: lote %s ya existe", domain.ErrDuplicate, batchID)
	}

	batch := &entity.PendingBatch{
		BatchID:       batchID,
		Kind:          entity.BatchDeliverable,
		Status:        entity.BatchStatusPending,
		SalesOrderID:  order.ID,
		CreatedBy:     meta.UserID,
		CreatedByName: meta.UserName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	events := make([]*entity.InventoryEvent, 0, len(op.Items))
	for _, it := range op.Items {
		item := items[it.InventoryItemID]
		bi := entity.BatchItem{
			ProductID:        item.ProductID,
			SKU:              item.SKU,
			LocationID:       item.LocationID,
			Quantity:         it.Units(),
			InventoryItemIDs: []string{item.ID},
			UnitCost:         item.UnitCost,
		}
		if item.IsSerialized {
			bi.Serials = []string{item.Serial}
		}
		batch.Items = append(batch.Items, bi)
		e := newEvent(meta, entity.EventDeliveryStaged, now)
		e.ProductID, e.SKU, e.InventoryItemID, e.Serial = item.ProductID, item.SKU, item.ID, item.Serial
		e.Quantity, e.FromLocationID, e.ReferenceID = it.Units(), item.LocationID, order.ID
		events = append(events, e)
	}

	// Escrituras
	if err := tx.Batches.Create(ctx, batch); err != nil {
		return err
	}
	s.log.Debug().Str("batch_id", batchID).Str("sales_order_id", order.ID).Msg("lote de entrega creado")
	return insertEvents(ctx, tx, events)
}

// stockOutLegacy descuenta del contador sku@location.
func stockOutLegacy(ctx context.Context, tx repository.Tx, meta Meta, op entity.StockOut, now time.Time) error {
	for _, it := range op.Items {
		level, err := tx.StockLevels.GetForUpdate(ctx, it.SKU, it.LocationID)
		if err != nil {
			return err
		}
		if level.Quantity < it.Units() {
			return fmt.Errorf("%w: %s tiene %d, se pidieron %d", domain.ErrInsufficientStock, level.ID, level.Quantity, it.Units())
		}
		level.Quantity -= it.Units()
		level.UpdatedAt = now
		if err := tx.StockLevels.Upsert(ctx, level); err != nil {
			return err
		}
		e := newEvent(meta, entity.EventStockAdjusted, now)
		e.ProductID, e.SKU, e.Quantity, e.FromLocationID = it.ProductID, it.SKU, it.Units(), it.LocationID
		if err := tx.Events.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
