package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/inventory"
)

// ─────────────────────────────────────────────────────────────────────────────
// Costo promedio ponderado
// ─────────────────────────────────────────────────────────────────────────────

func TestCostCalculator(t *testing.T) {
	got := inventory.CostCalculator(10, decimal.NewFromInt(100), 10, decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(150)), "got %s", got)

	assert.True(t, inventory.CostCalculator(0, decimal.Zero, 0, decimal.NewFromInt(5)).IsZero())
}

// ─────────────────────────────────────────────────────────────────────────────
// Estado derivado de documentos
// ─────────────────────────────────────────────────────────────────────────────

func TestPurchaseStatus(t *testing.T) {
	inv := &entity.PurchaseInvoice{
		Status: entity.DocumentPending,
		Lines: []entity.PurchaseLine{
			{ProductID: "p1", Quantity: 10},
			{ProductID: "p2", Quantity: 2},
		},
	}
	assert.Equal(t, entity.DocumentPending, inventory.PurchaseStatus(inv))

	inv.Lines[0].ReceivedQty = 10
	assert.Equal(t, entity.DocumentPartiallyReceived, inventory.PurchaseStatus(inv))

	inv.Lines[1].ReceivedQty = 2
	assert.Equal(t, entity.DocumentFinalized, inventory.PurchaseStatus(inv))
}

// TestDeriveStatus_NoRegresaDeFinalizado un documento finalizado no vuelve a parcial.
func TestDeriveStatus_NoRegresaDeFinalizado(t *testing.T) {
	got := inventory.DeriveStatus(entity.DocumentFinalized, []int{5}, []int{0}, entity.DocumentPartiallyShipped)
	assert.Equal(t, entity.DocumentFinalized, got)
}

func TestSalesStatus_Parcial(t *testing.T) {
	order := &entity.SalesOrder{Lines: []entity.SalesLine{{Quantity: 3, DeliveredQty: 1}}}
	assert.Equal(t, entity.DocumentPartiallyShipped, inventory.SalesStatus(order))
}

// ─────────────────────────────────────────────────────────────────────────────
// Asignación FIFO
// ─────────────────────────────────────────────────────────────────────────────

func lot(id string, qty int, at time.Time) *entity.InventoryItem {
	return &entity.InventoryItem{ID: id, Quantity: qty, Status: entity.ItemInStock, ReceivedAt: at}
}

func TestAllocateFIFO_MasAntiguoPrimero(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []*entity.InventoryItem{
		lot("nuevo", 5, t0.Add(48*time.Hour)),
		lot("viejo", 3, t0),
		{ID: "entregado", Quantity: 9, Status: entity.ItemDelivered, ReceivedAt: t0.Add(-time.Hour)},
	}

	allocs, err := inventory.AllocateFIFO(items, 4)
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, "viejo", allocs[0].Item.ID)
	assert.True(t, allocs[0].Full())
	assert.Equal(t, "nuevo", allocs[1].Item.ID)
	assert.Equal(t, 1, allocs[1].Quantity)
	assert.Equal(t, 5, items[0].Quantity, "la asignación no modifica los lotes")
}

func TestAllocateFIFO_Insuficiente(t *testing.T) {
	items := []*entity.InventoryItem{lot("a", 5, time.Now())}
	_, err := inventory.AllocateFIFO(items, 6)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestAllocateSerials(t *testing.T) {
	items := []*entity.InventoryItem{
		{ID: "1", Serial: "S1", Quantity: 1, Status: entity.ItemInStock},
		{ID: "2", Serial: "S2", Quantity: 1, Status: entity.ItemDelivered},
	}
	allocs, err := inventory.AllocateSerials(items, []string{"S1"})
	require.NoError(t, err)
	assert.Equal(t, "1", allocs[0].Item.ID)

	_, err = inventory.AllocateSerials(items, []string{"S2"})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// ─────────────────────────────────────────────────────────────────────────────
// Lotes pendientes
// ─────────────────────────────────────────────────────────────────────────────

func TestTakeReceivable_CantidadVaciaElLote(t *testing.T) {
	b := &entity.PendingBatch{
		BatchID: "BI-2501-001",
		Kind:    entity.BatchReceivable,
		Items:   []entity.BatchItem{{ProductID: "p", LocationID: "A", Quantity: 10}},
	}
	require.NoError(t, inventory.TakeReceivable(b, "p", "A", "", 4))
	assert.Equal(t, 6, b.Items[0].Quantity)

	require.NoError(t, inventory.TakeReceivable(b, "p", "A", "", 6))
	assert.True(t, b.Empty())
	assert.Empty(t, b.Items)
}

func TestTakeReceivable_Serial(t *testing.T) {
	b := &entity.PendingBatch{
		Kind:  entity.BatchReceivable,
		Items: []entity.BatchItem{{ProductID: "p", LocationID: "A", Quantity: 2, Serials: []string{"S1", "S2"}}},
	}
	require.NoError(t, inventory.TakeReceivable(b, "p", "A", "S2", 1))
	assert.Equal(t, []string{"S1"}, b.Items[0].Serials)

	err := inventory.TakeReceivable(b, "p", "A", "S2", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTakeReceivable_ExcedeLote(t *testing.T) {
	b := &entity.PendingBatch{
		Kind:  entity.BatchReceivable,
		Items: []entity.BatchItem{{ProductID: "p", LocationID: "A", Quantity: 3}},
	}
	err := inventory.TakeReceivable(b, "p", "A", "", 4)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 3, b.Items[0].Quantity)
}

func TestTakeDeliverable(t *testing.T) {
	b := &entity.PendingBatch{
		Kind:  entity.BatchDeliverable,
		Items: []entity.BatchItem{{ProductID: "p", LocationID: "A", Quantity: 2, InventoryItemIDs: []string{"lot-1"}}},
	}
	require.NoError(t, inventory.TakeDeliverable(b, "lot-1", 2))
	assert.True(t, b.Empty())

	err := inventory.TakeDeliverable(b, "lot-1", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
