package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/sequence"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/inventory"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

// StockIn registra un ingreso. En modo receivable (por defecto) solo se crea el lote pendiente BI;
// el libro y el resumen se mueven al finalizar la factura de compra.
func (s *Service) StockIn(ctx context.Context, scopeID string, meta Meta, op entity.StockIn) error {
	if err := validateStockIn(op); err != nil {
		return err
	}
	return s.run(ctx, scopeID, meta, func(tx repository.Tx, now time.Time) error {
		switch op.Mode {
		case entity.ModeDirect:
			return s.stockInDirect(ctx, tx, meta, op, now)
		case entity.ModeLegacy:
			return stockInLegacy(ctx, tx, meta, op, now)
		default:
			return s.stockInReceivable(ctx, tx, meta, op, now)
		}
	})
}

func validateStockIn(op entity.StockIn) error {
	switch op.Mode {
	case "", entity.ModeReceivable, entity.ModeDirect, entity.ModeLegacy:
	default:
		return invalid("modo %q no válido para ingreso", op.Mode)
	}
	if len(op.Items) == 0 {
		return invalid("el ingreso no tiene renglones")
	}
	for i, it := range op.Items {
		if err := checkLine(i, it.ProductID, it.SKU, it.Quantity, it.Serials, it.LocationID); err != nil {
			return err
		}
		if it.UnitCost.IsNegative() {
			return invalid("renglón %d: costo negativo", i)
		}
	}
	return nil
}

func productIDsIn(items []entity.StockInItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	return ids
}

func (s *Service) stockInReceivable(ctx context.Context, tx repository.Tx, meta Meta, op entity.StockIn, now time.Time) error {
	products, err := lockProducts(ctx, tx, productIDsIn(op.Items)...)
	if err != nil {
		return err
	}
	for i, it := range op.Items {
		p := products[it.ProductID]
		if p.SKU != it.SKU {
			return invalid("renglón %d: sku %s no corresponde al producto %s", i, it.SKU, p.ID)
		}
		if err := checkSerialized(i, p.SKU, p.IsSerialized, it.Serials); err != nil {
			return err
		}
	}

	batchID := op.BatchID
	if batchID == "" {
		// encolada sin conexión: el número se asigna aquí, dentro de la misma transacción
		if batchID, err = sequence.Next(ctx, tx.Counters, sequence.PrefixReceivable, now); err != nil {
			return err
		}
	} else if existing, err := tx.Batches.GetForUpdate(ctx, batchID); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("%w: lote %s ya existe", domain.ErrDuplicate, batchID)
	}

	batch := &entity.PendingBatch{
		BatchID:       batchID,
		Kind:          entity.BatchReceivable,
		Status:        entity.BatchStatusPending,
		CreatedBy:     meta.UserID,
		CreatedByName: meta.UserName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	events := make([]*entity.InventoryEvent, 0, len(op.Items))
	for _, it := range op.Items {
		batch.Items = append(batch.Items, entity.BatchItem{
			ProductID:  it.ProductID,
			SKU:        it.SKU,
			LocationID: it.LocationID,
			Quantity:   it.Units(),
			Serials:    append([]string(nil), it.Serials...),
			UnitCost:   it.UnitCost,
		})
		e := newEvent(meta, entity.EventReceiveStock, now)
		e.ProductID, e.SKU, e.Quantity = it.ProductID, it.SKU, it.Units()
		e.ToLocationID, e.ReferenceID, e.UnitCost = it.LocationID, batchID, it.UnitCost
		events = append(events, e)
	}

	if err := tx.Batches.Create(ctx, batch); err != nil {
		return err
	}
	s.log.Debug().Str("batch_id", batchID).Int("items", len(batch.Items)).Msg("lote de recepción creado")
	return insertEvents(ctx, tx, events)
}

func (s *Service) stockInDirect(ctx context.Context, tx repository.Tx, meta Meta, op entity.StockIn, now time.Time) error {
	// Lecturas
	products, err := lockProducts(ctx, tx, productIDsIn(op.Items)...)
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for i, it := range op.Items {
		p := products[it.ProductID]
		if p.SKU != it.SKU {
			return invalid("renglón %d: sku %s no corresponde al producto %s", i, it.SKU, p.ID)
		}
		if err := checkSerialized(i, p.SKU, p.IsSerialized, it.Serials); err != nil {
			return err
		}
		for _, serial := range it.Serials {
			key := it.ProductID + "/" + serial
			if seen[key] {
				return invalid("serial %s repetido en la acción", serial)
			}
			seen[key] = true
			exists, err := tx.Items.SerialExists(ctx, it.ProductID, serial)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%w: serial %s ya registrado", domain.ErrDuplicate, serial)
			}
		}
	}

	// Cálculo en memoria
	var created []*entity.InventoryItem
	var events []*entity.InventoryEvent
	touched := map[string]bool{}
	for _, it := range op.Items {
		p := products[it.ProductID]
		units := it.Units()
		p.Cost = inventory.CostCalculator(p.Stock.TotalInStock, p.Cost, units, it.UnitCost)
		if err := p.Stock.Apply(it.LocationID, units); err != nil {
			return invalid("%s", err.Error())
		}
		touched[p.ID] = true

		lots := newLots(p, it.LocationID, it.Quantity, it.Serials, it.UnitCost, meta, now)
		created = append(created, lots...)
		for _, lot := range lots {
			e := newEvent(meta, entity.EventStockIn, now)
			e.ProductID, e.SKU, e.InventoryItemID, e.Serial = p.ID, p.SKU, lot.ID, lot.Serial
			e.Quantity, e.ToLocationID, e.ReferenceID, e.UnitCost = lot.Quantity, it.LocationID, op.Reference, it.UnitCost
			events = append(events, e)
		}
	}

	// Escrituras
	for _, lot := range created {
		if err := tx.Items.Create(ctx, lot); err != nil {
			return err
		}
	}
	if err := saveSummaries(ctx, tx, products, touched); err != nil {
		return err
	}
	return insertEvents(ctx, tx, events)
}

// newLots arma las entradas del libro para un ingreso: una por serial, o un lote con serial interno.
func newLots(p *entity.Product, locationID string, qty int, serials []string, cost decimal.Decimal, meta Meta, now time.Time) []*entity.InventoryItem {
	base := entity.InventoryItem{
		ProductID:    p.ID,
		SKU:          p.SKU,
		LocationID:   locationID,
		Status:       entity.ItemInStock,
		UnitCost:     cost,
		ReceivedAt:   now,
		ReceivedBy:   meta.UserName,
		AuthorizedBy: meta.UserID,
		SourceToken:  meta.Token,
		UpdatedAt:    now,
	}
	if len(serials) == 0 {
		lot := base
		lot.ID = uuid.NewString()
		lot.Quantity = qty
		lot.Serial = internalSerial(p.SKU, now)
		return []*entity.InventoryItem{&lot}
	}
	out := make([]*entity.InventoryItem, 0, len(serials))
	for _, serial := range serials {
		lot := base
		lot.ID = uuid.NewString()
		lot.Quantity = 1
		lot.Serial = serial
		lot.IsSerialized = true
		out = append(out, &lot)
	}
	return out
}

// stockInLegacy suma al contador sku@location sin tocar el libro ni el resumen.
func stockInLegacy(ctx context.Context, tx repository.Tx, meta Meta, op entity.StockIn, now time.Time) error {
	for _, it := range op.Items {
		level, err := tx.StockLevels.GetForUpdate(ctx, it.SKU, it.LocationID)
		if err != nil {
			return err
		}
		level.Quantity += it.Units()
		level.UpdatedAt = now
		if err := tx.StockLevels.Upsert(ctx, level); err != nil {
			return err
		}
		e := newEvent(meta, entity.EventStockAdjusted, now)
		e.ProductID, e.SKU, e.Quantity, e.ToLocationID = it.ProductID, it.SKU, it.Units(), it.LocationID
		if err := tx.Events.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
