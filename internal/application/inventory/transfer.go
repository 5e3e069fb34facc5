package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

// Transfer mueve stock entre ubicaciones. Un lote consumido completo cambia de ubicación;
// uno parcial se divide: el origen se descuenta y en destino nace un lote nuevo.
// El total del producto no cambia.
func (s *Service) Transfer(ctx context.Context, scopeID string, meta Meta, op entity.Transfer) error {
	if err := validateTransfer(op); err != nil {
		return err
	}
	return s.run(ctx, scopeID, meta, func(tx repository.Tx, now time.Time) error {
		if op.Mode == entity.ModeLegacy {
			return transferLegacy(ctx, tx, meta, op, now)
		}
		return transferDirect(ctx, tx, meta, op, now)
	})
}

func validateTransfer(op entity.Transfer) error {
	switch op.Mode {
	case "", entity.ModeDirect, entity.ModeLegacy:
	default:
		return invalid("modo %q no válido para traslado", op.Mode)
	}
	if len(op.Items) == 0 {
		return invalid("el traslado no tiene renglones")
	}
	for i, it := range op.Items {
		if err := checkLine(i, it.ProductID, it.SKU, it.Quantity, it.Serials, it.FromLocationID, it.ToLocationID); err != nil {
			return err
		}
		if it.FromLocationID == it.ToLocationID {
			return invalid("renglón %d: origen y destino son la misma ubicación", i)
		}
	}
	return nil
}

func transferDirect(ctx context.Context, tx repository.Tx, meta Meta, op entity.Transfer, now time.Time) error {
	// Lecturas
	ids := make([]string, len(op.Items))
	for i, it := range op.Items {
		ids[i] = it.ProductID
	}
	products, err := lockProducts(ctx, tx, ids...)
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
		if _, err := lots.get(ctx, it.ProductID, it.FromLocationID); err != nil {
			return err
		}
		if _, err := lots.get(ctx, it.ProductID, it.ToLocationID); err != nil {
			return err
		}
	}

	// Cálculo en memoria
	var events []*entity.InventoryEvent
	touched := map[string]bool{}
	for _, it := range op.Items {
		p := products[it.ProductID]
		available, _ := lots.get(ctx, it.ProductID, it.FromLocationID)
		allocs, err := allocate(available, it.Quantity, it.Serials)
		if err != nil {
			return fmt.Errorf("traslado de %s desde %s: %w", it.SKU, it.FromLocationID, err)
		}
		if err := p.Stock.Apply(it.FromLocationID, -it.Units()); err != nil {
			return fmt.Errorf("%w: resumen de %s: %s", domain.ErrInsufficientStock, it.SKU, err.Error())
		}
		if err := p.Stock.Apply(it.ToLocationID, it.Units()); err != nil {
			return invalid("%s", err.Error())
		}
		touched[p.ID] = true

		for _, a := range allocs {
			moved := a.Item
			if a.Full() {
				lots.remove(moved, it.FromLocationID)
				moved.LocationID = it.ToLocationID
				moved.UpdatedAt = now
				lots.markChanged(moved)
			} else {
				moved = splitLot(a.Item, a.Quantity, it.ToLocationID, meta, now)
				lots.markChanged(a.Item)
				lots.created = append(lots.created, moved)
			}
			if err := lots.add(ctx, moved); err != nil {
				return err
			}
			e := newEvent(meta, entity.EventTransfer, now)
			e.ProductID, e.SKU, e.InventoryItemID, e.Serial = p.ID, p.SKU, moved.ID, moved.Serial
			e.Quantity, e.FromLocationID, e.ToLocationID, e.UnitCost = a.Quantity, it.FromLocationID, it.ToLocationID, moved.UnitCost
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

// splitLot descuenta qty del lote origen y devuelve el lote nuevo en destino.
// Conserva costo y fecha de ingreso para que el orden FIFO no cambie.
func splitLot(src *entity.InventoryItem, qty int, toLocationID string, meta Meta, now time.Time) *entity.InventoryItem {
	src.Quantity -= qty
	src.UpdatedAt = now
	return &entity.InventoryItem{
		ID:           uuid.NewString(),
		ProductID:    src.ProductID,
		SKU:          src.SKU,
		Quantity:     qty,
		Serial:       internalSerial(src.SKU, now),
		LocationID:   toLocationID,
		Status:       entity.ItemInStock,
		UnitCost:     src.UnitCost,
		ReceivedAt:   src.ReceivedAt,
		ReceivedBy:   src.ReceivedBy,
		AuthorizedBy: meta.UserID,
		SourceToken:  meta.Token,
		UpdatedAt:    now,
	}
}

// transferLegacy mueve entre contadores sku@location.
func transferLegacy(ctx context.Context, tx repository.Tx, meta Meta, op entity.Transfer, now time.Time) error {
	for _, it := range op.Items {
		from, err := tx.StockLevels.GetForUpdate(ctx, it.SKU, it.FromLocationID)
		if err != nil {
			return err
		}
		if from.Quantity < it.Units() {
			return fmt.Errorf("%w: %s tiene %d, se pidieron %d", domain.ErrInsufficientStock, from.ID, from.Quantity, it.Units())
		}
		to, err := tx.StockLevels.GetForUpdate(ctx, it.SKU, it.ToLocationID)
		if err != nil {
			return err
		}
		from.Quantity -= it.Units()
		to.Quantity += it.Units()
		from.UpdatedAt, to.UpdatedAt = now, now
		if err := tx.StockLevels.Upsert(ctx, from); err != nil {
			return err
		}
		if err := tx.StockLevels.Upsert(ctx, to); err != nil {
			return err
		}
		e := newEvent(meta, entity.EventStockAdjusted, now)
		e.ProductID, e.SKU, e.Quantity = it.ProductID, it.SKU, it.Units()
		e.FromLocationID, e.ToLocationID = it.FromLocationID, it.ToLocationID
		if err := tx.Events.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
