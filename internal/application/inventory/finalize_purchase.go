package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/inventory"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

// FinalizePurchase concilia unidades de lotes de recepción contra una factura de compra:
// descuenta los lotes (borrando los vacíos), crea las entradas del libro, suma al resumen,
// recalcula el costo promedio y avanza el estado de la factura.
func (s *Service) FinalizePurchase(ctx context.Context, scopeID string, meta Meta, op entity.FinalizePurchase) error {
	if err := validateFinalizePurchase(op); err != nil {
		return err
	}
	return s.run(ctx, scopeID, meta, func(tx repository.Tx, now time.Time) error {
		return s.finalizePurchase(ctx, tx, meta, op, now)
	})
}

func validateFinalizePurchase(op entity.FinalizePurchase) error {
	if op.PurchaseInvoiceID == "" {
		return invalid("factura de compra obligatoria")
	}
	if len(op.Units) == 0 {
		return invalid("no hay unidades para conciliar")
	}
	for i, u := range op.Units {
		if u.BatchID == "" {
			return invalid("unidad %d: lote obligatorio", i)
		}
		var serials []string
		if u.Serial != "" {
			serials = []string{u.Serial}
		}
		if err := checkLine(i, u.ProductID, u.SKU, u.Quantity, serials, u.LocationID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) finalizePurchase(ctx context.Context, tx repository.Tx, meta Meta, op entity.FinalizePurchase, now time.Time) error {
	// Lecturas
	inv, err := tx.Purchases.GetForUpdate(ctx, op.PurchaseInvoiceID)
	if err != nil {
		return err
	}
	if inv == nil {
		return fmt.Errorf("%w: factura de compra %s", domain.ErrNotFound, op.PurchaseInvoiceID)
	}
	if inv.Status == entity.DocumentFinalized {
		return fmt.Errorf("%w: factura de compra %s", domain.ErrAlreadyFinalized, inv.ID)
	}
	ids := make([]string, len(op.Units))
	for i, u := range op.Units {
		ids[i] = u.ProductID
	}
	products, err := lockProducts(ctx, tx, ids...)
	if err != nil {
		return err
	}
	batches := map[string]*entity.PendingBatch{}
	seen := map[string]bool{}
	for i, u := range op.Units {
		p := products[u.ProductID]
		if p.SKU != u.SKU {
			return invalid("unidad %d: sku %s no corresponde al producto %s", i, u.SKU, p.ID)
		}
		if p.IsSerialized != (u.Serial != "") {
			return invalid("unidad %d: %s serializado=%t no coincide con la unidad", i, p.SKU, p.IsSerialized)
		}
		if _, ok := batches[u.BatchID]; !ok {
			b, err := tx.Batches.GetForUpdate(ctx, u.BatchID)
			if err != nil {
				return err
			}
			if b == nil {
				return invalid("lote %s no existe o ya fue conciliado", u.BatchID)
			}
			batches[u.BatchID] = b
		}
		if u.Serial != "" {
			key := u.ProductID + "/" + u.Serial
			if seen[key] {
				return invalid("serial %s repetido en la acción", u.Serial)
			}
			seen[key] = true
			exists, err := tx.Items.SerialExists(ctx, u.ProductID, u.Serial)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%w: serial %s ya registrado", domain.ErrDuplicate, u.Serial)
			}
		}
	}

	// Cálculo en memoria
	var created []*entity.InventoryItem
	var events []*entity.InventoryEvent
	touched := map[string]bool{}
	for i, u := range op.Units {
		p := products[u.ProductID]
		units := u.Units()
		lineCost, err := receiveOnLines(inv, u.ProductID, units)
		if err != nil {
			return fmt.Errorf("unidad %d: %w", i, err)
		}
		if err := inventory.TakeReceivable(batches[u.BatchID], u.ProductID, u.LocationID, u.Serial, units); err != nil {
			return err
		}
		cost := u.UnitCost
		if cost.IsZero() {
			cost = lineCost
		}
		p.Cost = inventory.CostCalculator(p.Stock.TotalInStock, p.Cost, units, cost)
		if err := p.Stock.Apply(u.LocationID, units); err != nil {
			return invalid("%s", err.Error())
		}
		touched[p.ID] = true

		var serials []string
		if u.Serial != "" {
			serials = []string{u.Serial}
		}
		for _, lot := range newLots(p, u.LocationID, u.Quantity, serials, cost, meta, now) {
			created = append(created, lot)
			e := newEvent(meta, entity.EventPurchaseReceived, now)
			e.ProductID, e.SKU, e.InventoryItemID, e.Serial = p.ID, p.SKU, lot.ID, lot.Serial
			e.Quantity, e.ToLocationID, e.ReferenceID, e.UnitCost = lot.Quantity, u.LocationID, inv.ID, cost
			events = append(events, e)
		}
	}
	inv.Status = inventory.PurchaseStatus(inv)
	inv.UpdatedAt = now
	if inv.Status == entity.DocumentFinalized {
		inv.FinalizedAt = &now
	}

	// Escrituras
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
	for _, lot := range created {
		if err := tx.Items.Create(ctx, lot); err != nil {
			return err
		}
	}
	if err := saveSummaries(ctx, tx, products, touched); err != nil {
		return err
	}
	if err := tx.Purchases.Update(ctx, inv); err != nil {
		return err
	}
	s.log.Info().Str("purchase_invoice_id", inv.ID).Str("status", string(inv.Status)).
		Int("units", len(op.Units)).Msg("factura de compra conciliada")
	return insertEvents(ctx, tx, events)
}

// receiveOnLines reparte qty entre las líneas pendientes del producto y devuelve el costo de la primera.
// Recibir más de lo pendiente es ErrInvalidInput.
func receiveOnLines(inv *entity.PurchaseInvoice, productID string, qty int) (decimal.Decimal, error) {
	pending := 0
	first := -1
	for i, l := range inv.Lines {
		if l.ProductID != productID || l.ReceivedQty >= l.Quantity {
			continue
		}
		if first < 0 {
			first = i
		}
		pending += l.Quantity - l.ReceivedQty
	}
	if pending < qty {
		return decimal.Zero, invalid("la factura %s tiene %d pendientes de %s, se recibieron %d", inv.ID, pending, productID, qty)
	}
	cost := inv.Lines[first].UnitCost
	remaining := qty
	for i := range inv.Lines {
		l := &inv.Lines[i]
		if remaining == 0 {
			break
		}
		if l.ProductID != productID || l.ReceivedQty >= l.Quantity {
			continue
		}
		take := min(l.Quantity-l.ReceivedQty, remaining)
		l.ReceivedQty += take
		remaining -= take
	}
	return cost, nil
}
