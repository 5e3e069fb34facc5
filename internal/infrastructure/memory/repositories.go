package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// ─────────────────────────────────────────────────────────────────────────────
// Copias profundas: lo que sale del almacén nunca comparte memoria con lo guardado.
// ─────────────────────────────────────────────────────────────────────────────

func copyProduct(p *entity.Product) *entity.Product {
	c := *p
	c.Stock = p.Stock.Clone()
	return &c
}

func copyItem(i *entity.InventoryItem) *entity.InventoryItem {
	c := *i
	if i.Delivery != nil {
		d := *i.Delivery
		c.Delivery = &d
	}
	return &c
}

func copyBatch(b *entity.PendingBatch) *entity.PendingBatch {
	c := *b
	c.Items = make([]entity.BatchItem, len(b.Items))
	for i, it := range b.Items {
		it.Serials = slices.Clone(it.Serials)
		it.InventoryItemIDs = slices.Clone(it.InventoryItemIDs)
		c.Items[i] = it
	}
	return &c
}

func copyPurchase(p *entity.PurchaseInvoice) *entity.PurchaseInvoice {
	c := *p
	c.Lines = slices.Clone(p.Lines)
	return &c
}

func copySales(o *entity.SalesOrder) *entity.SalesOrder {
	c := *o
	c.Lines = slices.Clone(o.Lines)
	return &c
}

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

func page[T any](all []*T, limit, offset int) []*T {
	if offset >= len(all) {
		return []*T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

// ─────────────────────────────────────────────────────────────────────────────
// Productos
// ─────────────────────────────────────────────────────────────────────────────

type productRepo struct{ s *state }

func (r productRepo) Create(_ context.Context, p *entity.Product) error {
	if _, ok := r.s.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, existing := range r.s.products {
		if existing.SKU == p.SKU {
			return domain.ErrDuplicate
		}
	}
	r.s.products[p.ID] = copyProduct(p)
	return nil
}

func (r productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return copyProduct(p), nil
}

func (r productRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	for _, p := range r.s.products {
		if p.SKU == sku {
			return copyProduct(p), nil
		}
	}
	return nil, nil
}

func (r productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r productRepo) Update(_ context.Context, p *entity.Product) error {
	cur, ok := r.s.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	next := copyProduct(p)
	// El resumen de stock solo se escribe con UpdateStock.
	next.Stock = cur.Stock.Clone()
	next.Cost = cur.Cost
	r.s.products[p.ID] = next
	return nil
}

func (r productRepo) UpdateStock(_ context.Context, id string, summary entity.StockSummary, cost decimal.Decimal) error {
	cur, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	next := copyProduct(cur)
	next.Stock = summary.Clone()
	next.Cost = cost
	r.s.products[id] = next
	return nil
}

func (r productRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	all := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		all = append(all, copyProduct(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })
	return page(all, limit, offset), nil
}

func (r productRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Ubicaciones
// ─────────────────────────────────────────────────────────────────────────────

type locationRepo struct{ s *state }

func (r locationRepo) Create(_ context.Context, l *entity.Location) error {
	if _, ok := r.s.locations[l.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.locations[l.ID] = copyOf(l)
	return nil
}

func (r locationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	return copyOf(l), nil
}

func (r locationRepo) Update(_ context.Context, l *entity.Location) error {
	if _, ok := r.s.locations[l.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.locations[l.ID] = copyOf(l)
	return nil
}

func (r locationRepo) List(_ context.Context, limit, offset int) ([]*entity.Location, error) {
	all := make([]*entity.Location, 0, len(r.s.locations))
	for _, l := range r.s.locations {
		all = append(all, copyOf(l))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, limit, offset), nil
}

func (r locationRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.locations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.locations, id)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Listas auxiliares
// ─────────────────────────────────────────────────────────────────────────────

type lookupRepo struct{ s *state }

func (r lookupRepo) Create(_ context.Context, item *entity.LookupItem) error {
	for id, l := range r.s.lookups {
		if id == item.ID || (l.Kind == item.Kind && strings.EqualFold(l.Value, item.Value)) {
			return domain.ErrDuplicate
		}
	}
	r.s.lookups[item.ID] = copyOf(item)
	return nil
}

func (r lookupRepo) List(_ context.Context, kind string) ([]*entity.LookupItem, error) {
	out := make([]*entity.LookupItem, 0, len(r.s.lookups))
	for _, l := range r.s.lookups {
		if kind == "" || l.Kind == kind {
			out = append(out, copyOf(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return strings.ToLower(out[i].Value) < strings.ToLower(out[j].Value)
	})
	return out, nil
}

func (r lookupRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.lookups[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.lookups, id)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Libro de lotes
// ─────────────────────────────────────────────────────────────────────────────

type itemRepo struct{ s *state }

func (r itemRepo) Create(_ context.Context, i *entity.InventoryItem) error {
	if _, ok := r.s.items[i.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.items[i.ID] = copyItem(i)
	return nil
}

func (r itemRepo) Update(_ context.Context, i *entity.InventoryItem) error {
	if _, ok := r.s.items[i.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.items[i.ID] = copyItem(i)
	return nil
}

func (r itemRepo) GetForUpdate(_ context.Context, id string) (*entity.InventoryItem, error) {
	i, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	return copyItem(i), nil
}

func (r itemRepo) ListAvailableForUpdate(_ context.Context, productID, locationID string) ([]*entity.InventoryItem, error) {
	out := make([]*entity.InventoryItem, 0)
	for _, i := range r.s.items {
		if i.ProductID == productID && i.LocationID == locationID && i.Available() {
			out = append(out, copyItem(i))
		}
	}
	sortByReceived(out)
	return out, nil
}

func (r itemRepo) ListByProduct(_ context.Context, productID string) ([]*entity.InventoryItem, error) {
	out := make([]*entity.InventoryItem, 0)
	for _, i := range r.s.items {
		if i.ProductID == productID {
			out = append(out, copyItem(i))
		}
	}
	sortByReceived(out)
	return out, nil
}

func (r itemRepo) SerialExists(_ context.Context, productID, serial string) (bool, error) {
	for _, i := range r.s.items {
		if i.ProductID == productID && i.Serial == serial {
			return true, nil
		}
	}
	return false, nil
}

func sortByReceived(items []*entity.InventoryItem) {
	sort.Slice(items, func(a, b int) bool {
		if items[a].ReceivedAt.Equal(items[b].ReceivedAt) {
			return items[a].ID < items[b].ID
		}
		return items[a].ReceivedAt.Before(items[b].ReceivedAt)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Lotes pendientes
// ─────────────────────────────────────────────────────────────────────────────

type batchRepo struct{ s *state }

func (r batchRepo) Create(_ context.Context, b *entity.PendingBatch) error {
	if _, ok := r.s.batches[b.BatchID]; ok {
		return domain.ErrDuplicate
	}
	r.s.batches[b.BatchID] = copyBatch(b)
	return nil
}

func (r batchRepo) GetForUpdate(_ context.Context, batchID string) (*entity.PendingBatch, error) {
	b, ok := r.s.batches[batchID]
	if !ok {
		return nil, nil
	}
	return copyBatch(b), nil
}

func (r batchRepo) Update(_ context.Context, b *entity.PendingBatch) error {
	if _, ok := r.s.batches[b.BatchID]; !ok {
		return domain.ErrNotFound
	}
	r.s.batches[b.BatchID] = copyBatch(b)
	return nil
}

func (r batchRepo) Delete(_ context.Context, batchID string) error {
	delete(r.s.batches, batchID)
	return nil
}

func (r batchRepo) List(_ context.Context, kind entity.BatchKind) ([]*entity.PendingBatch, error) {
	out := make([]*entity.PendingBatch, 0)
	for _, b := range r.s.batches {
		if kind == "" || b.Kind == kind {
			out = append(out, copyBatch(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchID < out[j].BatchID })
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Documentos fuente
// ─────────────────────────────────────────────────────────────────────────────

type purchaseRepo struct{ s *state }

func (r purchaseRepo) Create(_ context.Context, p *entity.PurchaseInvoice) error {
	if _, ok := r.s.purchases[p.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.purchases[p.ID] = copyPurchase(p)
	return nil
}

func (r purchaseRepo) GetByID(_ context.Context, id string) (*entity.PurchaseInvoice, error) {
	p, ok := r.s.purchases[id]
	if !ok {
		return nil, nil
	}
	return copyPurchase(p), nil
}

func (r purchaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseInvoice, error) {
	return r.GetByID(ctx, id)
}

func (r purchaseRepo) Update(_ context.Context, p *entity.PurchaseInvoice) error {
	if _, ok := r.s.purchases[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.purchases[p.ID] = copyPurchase(p)
	return nil
}

type salesRepo struct{ s *state }

func (r salesRepo) Create(_ context.Context, o *entity.SalesOrder) error {
	if _, ok := r.s.sales[o.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.sales[o.ID] = copySales(o)
	return nil
}

func (r salesRepo) GetByID(_ context.Context, id string) (*entity.SalesOrder, error) {
	o, ok := r.s.sales[id]
	if !ok {
		return nil, nil
	}
	return copySales(o), nil
}

func (r salesRepo) GetForUpdate(ctx context.Context, id string) (*entity.SalesOrder, error) {
	return r.GetByID(ctx, id)
}

func (r salesRepo) Update(_ context.Context, o *entity.SalesOrder) error {
	if _, ok := r.s.sales[o.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.sales[o.ID] = copySales(o)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Contadores, historial, idempotencia y contador heredado
// ─────────────────────────────────────────────────────────────────────────────

type counterRepo struct{ s *state }

func (r counterRepo) GetForUpdate(_ context.Context, id string) (*entity.SequenceCounter, error) {
	c, ok := r.s.counters[id]
	if !ok {
		return nil, nil
	}
	return copyOf(c), nil
}

func (r counterRepo) Upsert(_ context.Context, c *entity.SequenceCounter) error {
	r.s.counters[c.ID] = copyOf(c)
	return nil
}

type eventRepo struct{ s *state }

func (r eventRepo) Create(_ context.Context, e *entity.InventoryEvent) error {
	r.s.events = append(r.s.events, copyOf(e))
	return nil
}

func (r eventRepo) ListByProduct(_ context.Context, productID string, limit int) ([]*entity.InventoryEvent, error) {
	out := make([]*entity.InventoryEvent, 0)
	for i := len(r.s.events) - 1; i >= 0; i-- {
		e := r.s.events[i]
		if e.ProductID != productID {
			continue
		}
		out = append(out, copyOf(e))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type appliedRepo struct{ s *state }

func (r appliedRepo) Exists(_ context.Context, token string) (bool, error) {
	_, ok := r.s.applied[token]
	return ok, nil
}

func (r appliedRepo) Create(_ context.Context, a *entity.AppliedAction) error {
	if _, ok := r.s.applied[a.Token]; ok {
		return domain.ErrDuplicate
	}
	r.s.applied[a.Token] = copyOf(a)
	return nil
}

type stockLevelRepo struct{ s *state }

func (r stockLevelRepo) GetForUpdate(_ context.Context, sku, locationID string) (*entity.StockLevel, error) {
	key := entity.StockLevelKey(sku, locationID)
	if l, ok := r.s.stockLevels[key]; ok {
		return copyOf(l), nil
	}
	return &entity.StockLevel{ID: key, SKU: sku, LocationID: locationID}, nil
}

func (r stockLevelRepo) Upsert(_ context.Context, l *entity.StockLevel) error {
	r.s.stockLevels[l.ID] = copyOf(l)
	return nil
}
