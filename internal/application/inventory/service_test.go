package inventory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/inventory"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/infrastructure/memory"
)

const scope = "tienda-1"

var fixedNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	t     testing.TB
	ctx   context.Context
	store *memory.Store
	svc   *inventory.Service
	seq   int
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: memory.NewStore(),
	}
	f.svc = inventory.NewService(f.store, zerolog.Nop(), func() time.Time { return fixedNow })
	f.run(func(tx repository.Tx) error {
		for _, p := range []*entity.Product{
			{ID: "px", SKU: "X", Name: "Cable HDMI"},
			{ID: "ps", SKU: "S", Name: "Router", IsSerialized: true},
		} {
			if err := tx.Products.Create(f.ctx, p); err != nil {
				return err
			}
		}
		for _, l := range []*entity.Location{{ID: "A", Name: "Bodega A"}, {ID: "B", Name: "Bodega B"}, {ID: "C", Name: "Vitrina"}} {
			if err := tx.Locations.Create(f.ctx, l); err != nil {
				return err
			}
		}
		return nil
	})
	return f
}

func (f *fixture) run(fn func(tx repository.Tx) error) {
	f.t.Helper()
	require.NoError(f.t, f.store.Run(f.ctx, scope, fn))
}

// apply encola y aplica op con un token nuevo.
func (f *fixture) apply(op entity.Operation) error {
	f.seq++
	return f.applyToken(op, fmt.Sprintf("tok-%d", f.seq))
}

func (f *fixture) applyToken(op entity.Operation, token string) error {
	return f.svc.Apply(f.ctx, scope, entity.QueuedAction{
		ID:    "act-" + token,
		Type:  op.Type(),
		Token: token,
		Payload: entity.ActionPayload{
			Operation: op,
			UserID:    "u1",
			User:      entity.UserProfile{DisplayName: "Ana"},
		},
	})
}

func (f *fixture) product(id string) *entity.Product {
	f.t.Helper()
	var p *entity.Product
	f.run(func(tx repository.Tx) error {
		var err error
		p, err = tx.Products.GetByID(f.ctx, id)
		return err
	})
	require.NotNil(f.t, p)
	return p
}

func (f *fixture) items(productID string) []*entity.InventoryItem {
	f.t.Helper()
	var out []*entity.InventoryItem
	f.run(func(tx repository.Tx) error {
		var err error
		out, err = tx.Items.ListByProduct(f.ctx, productID)
		return err
	})
	return out
}

func (f *fixture) batch(id string) *entity.PendingBatch {
	f.t.Helper()
	var b *entity.PendingBatch
	f.run(func(tx repository.Tx) error {
		var err error
		b, err = tx.Batches.GetForUpdate(f.ctx, id)
		return err
	})
	return b
}

func directIn(productID, sku, loc string, qty int, serials ...string) entity.StockIn {
	return entity.StockIn{Mode: entity.ModeDirect, Items: []entity.StockInItem{{
		ProductID: productID, SKU: sku, LocationID: loc, Quantity: qty, Serials: serials,
		UnitCost: decimal.NewFromInt(100),
	}}}
}

func directOut(loc string, qty int) entity.StockOut {
	return entity.StockOut{Items: []entity.StockOutItem{{ProductID: "px", SKU: "X", LocationID: loc, Quantity: qty}}}
}

func transfer(from, to string, qty int) entity.Transfer {
	return entity.Transfer{Items: []entity.TransferItem{{ProductID: "px", SKU: "X", FromLocationID: from, ToLocationID: to, Quantity: qty}}}
}

// ─── Escenario completo ─────────────────────────────────────────────────────

func TestEscenario_RecepcionSalidaTraslado(t *testing.T) {
	f := newFixture(t)
	f.run(func(tx repository.Tx) error {
		return tx.Purchases.Create(f.ctx, &entity.PurchaseInvoice{
			ID:     "PI-2501-001",
			Status: entity.DocumentPending,
			Lines:  []entity.PurchaseLine{{ProductID: "px", SKU: "X", Quantity: 10, UnitCost: decimal.NewFromInt(100)}},
		})
	})

	require.NoError(t, f.apply(entity.StockIn{BatchID: "BI-2501-001", Items: []entity.StockInItem{
		{ProductID: "px", SKU: "X", LocationID: "A", Quantity: 10},
	}}))
	require.NotNil(t, f.batch("BI-2501-001"))
	assert.Equal(t, 0, f.product("px").Stock.TotalInStock, "la recepción pendiente no mueve el resumen")

	require.NoError(t, f.apply(entity.FinalizePurchase{PurchaseInvoiceID: "PI-2501-001", Units: []entity.PurchaseUnit{
		{BatchID: "BI-2501-001", ProductID: "px", SKU: "X", LocationID: "A", Quantity: 10},
	}}))
	p := f.product("px")
	assert.Equal(t, 10, p.Stock.At("A"))
	assert.True(t, p.Cost.Equal(decimal.NewFromInt(100)))
	assert.Nil(t, f.batch("BI-2501-001"), "el lote vacío se elimina")
	f.run(func(tx repository.Tx) error {
		inv, err := tx.Purchases.GetByID(f.ctx, "PI-2501-001")
		require.NoError(t, err)
		assert.Equal(t, entity.DocumentFinalized, inv.Status)
		assert.Equal(t, 10, inv.Lines[0].ReceivedQty)
		assert.NotNil(t, inv.FinalizedAt)
		return nil
	})

	require.NoError(t, f.apply(directOut("A", 4)))
	assert.Equal(t, 6, f.product("px").Stock.At("A"))

	require.NoError(t, f.apply(transfer("A", "B", 6)))
	p = f.product("px")
	assert.Equal(t, 0, p.Stock.At("A"))
	assert.Equal(t, 6, p.Stock.At("B"))
	assert.Equal(t, 6, p.Stock.TotalInStock)
	assert.True(t, p.Stock.Consistent())

	items := f.items("px")
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].LocationID)
	assert.Equal(t, 6, items[0].Quantity)
	assert.Equal(t, entity.ItemInStock, items[0].Status)
}

// ─── Ingresos ───────────────────────────────────────────────────────────────

func TestStockIn_SinLoteAsignaNumeroEnLaTransaccion(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.apply(entity.StockIn{Items: []entity.StockInItem{
		{ProductID: "px", SKU: "X", LocationID: "A", Quantity: 3},
	}}))
	require.NoError(t, f.apply(entity.StockIn{Items: []entity.StockInItem{
		{ProductID: "px", SKU: "X", LocationID: "A", Quantity: 2},
	}}))
	assert.NotNil(t, f.batch("BI-2501-001"))
	assert.NotNil(t, f.batch("BI-2501-002"))
}

func TestStockIn_DirectoCalculaCostoPromedio(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.apply(directIn("px", "X", "A", 10)))
	in := directIn("px", "X", "B", 10)
	in.Items[0].UnitCost = decimal.NewFromInt(200)
	require.NoError(t, f.apply(in))

	p := f.product("px")
	assert.Equal(t, 20, p.Stock.TotalInStock)
	assert.True(t, p.Cost.Equal(decimal.NewFromInt(150)), "costo: %s", p.Cost)
	for _, it := range f.items("px") {
		assert.NotEmpty(t, it.Serial, "los lotes no serializados llevan serial interno")
		assert.False(t, it.IsSerialized)
	}
}

func TestStockIn_SerialDuplicadoSeRechaza(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.apply(directIn("ps", "S", "A", 0, "s1", "s2")))
	err := f.apply(directIn("ps", "S", "A", 0, "s2"))
	require.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, 2, f.product("ps").Stock.TotalInStock)
}

func TestStockIn_Legacy(t *testing.T) {
	f := newFixture(t)
	in := directIn("px", "X", "A", 7)
	in.Mode = entity.ModeLegacy
	require.NoError(t, f.apply(in))

	f.run(func(tx repository.Tx) error {
		level, err := tx.StockLevels.GetForUpdate(f.ctx, "X", "A")
		require.NoError(t, err)
		assert.Equal(t, "X@A", level.ID)
		assert.Equal(t, 7, level.Quantity)
		return nil
	})
	assert.Equal(t, 0, f.product("px").Stock.TotalInStock, "el contador heredado no alimenta el resumen")
}

// ─── Salidas ────────────────────────────────────────────────────────────────

func TestStockOut_InsuficienteNoModificaNada(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.apply(directIn("px", "X", "A", 3)))

	err := f.apply(directOut("A", 5))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.False(t, domain.IsPermanent(err), "stock insuficiente se reintenta")

	p := f.product("px")
	assert.Equal(t, 3, p.Stock.At("A"))
	items := f.items("px")
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestStockOut_FIFOConsumeLoteMasAntiguo(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.apply(directIn("px", "X", "A", 2)))
	f.svc = inventory.NewService(f.store, zerolog.Nop(), func() time.Time { return fixedNow.Add(time.Hour) })
	require.NoError(t, f.apply(directIn("px", "X", "A", 5)))

	require.NoError(t, f.apply(directOut("A", 3)))

	var delivered, remaining []*entity.InventoryItem
	for _, it := range f.items("px") {
		if it.Status == entity.ItemDelivered {
			delivered = append(delivered, it)
		} else {
			remaining = append(remaining, it)
		}
	}
	require.Len(t, delivered, 1)
	assert.Equal(t, 2, delivered[0].Quantity, "el consumo total conserva la cantidad")
	assert.True(t, delivered[0].ReceivedAt.Equal(fixedNow))
	require.NotNil(t, delivered[0].Delivery)
	require.Len(t, remaining, 1)
	assert.Equal(t, 4, remaining[0].Quantity)
	assert.Equal(t, 4, f.product("px").Stock.At("A"))
}

func TestStockOut_PorSerial(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.apply(directIn("ps", "S", "A", 0, "s1", "s2", "s3")))

	require.NoError(t, f.apply(entity.StockOut{Items: []entity.StockOutItem{
		{ProductID: "ps", SKU: "S", LocationID: "A", Serials: []string{"s2"}},
	}}))
	for _, it := range f.items("ps") {
		if it.Serial == "s2" {
			assert.Equal(t, entity.ItemDelivered, it.Status)
		} else {
			assert.Equal(t, entity.ItemInStock, it.Status)
		}
	}
	assert.Equal(t, 2, f.product("ps").Stock.At("A"))

	err := f.apply(entity.StockOut{Items: []entity.StockOutItem{
		{ProductID: "ps", SKU: "S", LocationID: "A", Serials: []string{"s2"}},
	}})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// ─── Traslados ──────────────────────────────────────────────────────────────

func TestTransfer_ParcialDivideLote(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.apply(directIn("px", "X", "A", 10)))

	require.NoError(t, f.apply(transfer("A", "B", 4)))

	p := f.product("px")
	assert.Equal(t, 6, p.Stock.At("A"))
	assert.Equal(t, 4, p.Stock.At("B"))
	assert.Equal(t, 10, p.Stock.TotalInStock)

	items := f.items("px")
	require.Len(t, items, 2)
	byLoc := map[string]*entity.InventoryItem{}
	for _, it := range items {
		byLoc[it.LocationID] = it
	}
	assert.Equal(t, 6, byLoc["A"].Quantity)
	assert.Equal(t, 4, byLoc["B"].Quantity)
	assert.NotEqual(t, byLoc["A"].Serial, byLoc["B"].Serial)
	assert.True(t, byLoc["A"].UnitCost.Equal(byLoc["B"].UnitCost))
}

func TestTransfer_MismaUbicacionEsInvalido(t *testing.T) {
	f := newFixture(t)
	err := f.apply(transfer("A", "A", 1))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.True(t, domain.IsPermanent(err))
}

func TestTransfer_Legacy(t *testing.T) {
	f := newFixture(t)
	in := directIn("px", "X", "A", 5)
	in.Mode = entity.ModeLegacy
	require.NoError(t, f.apply(in))

	tr := transfer("A", "B", 2)
	tr.Mode = entity.ModeLegacy
	require.NoError(t, f.apply(tr))

	tr = transfer("A", "B", 9)
	tr.Mode = entity.ModeLegacy
	require.ErrorIs(t, f.apply(tr), domain.ErrInsufficientStock)

	f.run(func(tx repository.Tx) error {
		a, _ := tx.StockLevels.GetForUpdate(f.ctx, "X", "A")
		b, _ := tx.StockLevels.GetForUpdate(f.ctx, "X", "B")
		assert.Equal(t, 3, a.Quantity)
		assert.Equal(t, 2, b.Quantity)
		return nil
	})
}

// ─── Conciliación de documentos ─────────────────────────────────────────────

func TestFinalizePurchase_FacturaFinalizadaSeRechaza(t *testing.T) {
	f := newFixture(t)
	f.run(func(tx repository.Tx) error {
		return tx.Purchases.Create(f.ctx, &entity.PurchaseInvoice{
			ID:     "PI-2501-001",
			Status: entity.DocumentPending,
			Lines:  []entity.PurchaseLine{{ProductID: "px", SKU: "X", Quantity: 4, UnitCost: decimal.NewFromInt(50)}},
		})
	})
	require.NoError(t, f.apply(entity.StockIn{BatchID: "BI-2501-001", Items: []entity.StockInItem{
		{ProductID: "px", SKU: "X", LocationID: "A", Quantity: 6},
	}}))

	unit := entity.PurchaseUnit{BatchID: "BI-2501-001", ProductID: "px", SKU: "X", LocationID: "A", Quantity: 3}
	require.NoError(t, f.apply(entity.FinalizePurchase{PurchaseInvoiceID: "PI-2501-001", Units: []entity.PurchaseUnit{unit}}))
	f.run(func(tx repository.Tx) error {
		inv, _ := tx.Purchases.GetByID(f.ctx, "PI-2501-001")
		assert.Equal(t, entity.DocumentPartiallyReceived, inv.Status)
		return nil
	})
	assert.True(t, f.product("px").Cost.Equal(decimal.NewFromInt(50)), "sin costo en la unidad se usa el de la línea")

	err := f.apply(entity.FinalizePurchase{PurchaseInvoiceID: "PI-2501-001", Units: []entity.PurchaseUnit{unit}})
	require.ErrorIs(t, err, domain.ErrInvalidInput, "recibir más de lo pendiente")

	unit.Quantity = 1
	require.NoError(t, f.apply(entity.FinalizePurchase{PurchaseInvoiceID: "PI-2501-001", Units: []entity.PurchaseUnit{unit}}))
	err = f.apply(entity.FinalizePurchase{PurchaseInvoiceID: "PI-2501-001", Units: []entity.PurchaseUnit{unit}})
	require.ErrorIs(t, err, domain.ErrAlreadyFinalized)
	assert.True(t, domain.IsPermanent(err))

	b := f.batch("BI-2501-001")
	require.NotNil(t, b)
	assert.Equal(t, 2, b.Items[0].Quantity)
	assert.Equal(t, 4, f.product("px").Stock.At("A"))
}

func TestFinalizeSale_EntregaLoteApartado(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.apply(directIn("px", "X", "A", 5)))
	lot := f.items("px")[0]
	f.run(func(tx repository.Tx) error {
		return tx.Sales.Create(f.ctx, &entity.SalesOrder{
			ID:         "SO-2501-001",
			LocationID: "A",
			Status:     entity.DocumentPending,
			Lines:      []entity.SalesLine{{ProductID: "px", SKU: "X", Quantity: 5}},
		})
	})

	require.NoError(t, f.apply(entity.StockOut{Mode: entity.ModeDeliverable, SalesOrderID: "SO-2501-001", Items: []entity.StockOutItem{
		{ProductID: "px", SKU: "X", LocationID: "A", Quantity: 5, InventoryItemID: lot.ID},
	}}))
	b := f.batch("BO-2501-001")
	require.NotNil(t, b)
	assert.Equal(t, entity.BatchDeliverable, b.Kind)
	assert.Equal(t, 5, f.product("px").Stock.At("A"), "apartar no descuenta")

	require.NoError(t, f.apply(entity.FinalizeSale{SalesOrderID: "SO-2501-001", Units: []entity.SaleUnit{
		{BatchID: "BO-2501-001", InventoryItemID: lot.ID, ProductID: "px", Quantity: 5},
	}}))

	assert.Nil(t, f.batch("BO-2501-001"))
	assert.Equal(t, 0, f.product("px").Stock.TotalInStock)
	got := f.items("px")[0]
	assert.Equal(t, entity.ItemDelivered, got.Status)
	require.NotNil(t, got.Delivery)
	assert.Equal(t, "SO-2501-001", got.Delivery.SalesOrderID)
	f.run(func(tx repository.Tx) error {
		o, _ := tx.Sales.GetByID(f.ctx, "SO-2501-001")
		assert.Equal(t, entity.DocumentFinalized, o.Status)
		return nil
	})

	err := f.apply(entity.FinalizeSale{SalesOrderID: "SO-2501-001", Units: []entity.SaleUnit{
		{InventoryItemID: lot.ID, ProductID: "px", Quantity: 1},
	}})
	require.ErrorIs(t, err, domain.ErrAlreadyFinalized)
}

func TestFinalizeSale_LoteYaEntregado(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.apply(directIn("px", "X", "A", 2)))
	lot := f.items("px")[0]
	f.run(func(tx repository.Tx) error {
		return tx.Sales.Create(f.ctx, &entity.SalesOrder{
			ID: "SO-2501-001", Status: entity.DocumentPending,
			Lines: []entity.SalesLine{{ProductID: "px", SKU: "X", Quantity: 5}},
		})
	})
	require.NoError(t, f.apply(directOut("A", 2)))

	err := f.apply(entity.FinalizeSale{SalesOrderID: "SO-2501-001", Units: []entity.SaleUnit{
		{InventoryItemID: lot.ID, ProductID: "px", Quantity: 1},
	}})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// ─── Idempotencia y despacho ────────────────────────────────────────────────

func TestApply_TokenRepetidoEsNoOp(t *testing.T) {
	f := newFixture(t)
	op := directIn("px", "X", "A", 5)
	require.NoError(t, f.applyToken(op, "tok-fijo"))
	require.NoError(t, f.applyToken(op, "tok-fijo"))

	assert.Equal(t, 5, f.product("px").Stock.TotalInStock)
	assert.Len(t, f.items("px"), 1)
}

func TestApply_AccionDesconocida(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Apply(f.ctx, scope, entity.QueuedAction{ID: "a1", Type: "ADJUST_PRICE", Token: "t"})
	require.ErrorIs(t, err, domain.ErrUnknownAction)
	assert.True(t, domain.IsPermanent(err))
}

func TestApply_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	err := f.apply(directIn("nope", "N", "A", 1))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApply_Validaciones(t *testing.T) {
	tests := []struct {
		name string
		op   entity.Operation
	}{
		{"ingreso sin renglones", entity.StockIn{Mode: entity.ModeDirect}},
		{"cantidad cero", directIn("px", "X", "A", 0)},
		{"cantidad negativa", directIn("px", "X", "A", -1)},
		{"seriales no cuadran", directIn("ps", "S", "A", 3, "s1")},
		{"seriales repetidos", directIn("ps", "S", "A", 0, "s1", "s1")},
		{"serializado sin seriales", directIn("ps", "S", "A", 2)},
		{"sku no coincide", directIn("px", "OTRO", "A", 1)},
		{"modo no válido", entity.StockIn{Mode: entity.ModeDeliverable, Items: directIn("px", "X", "A", 1).Items}},
		{"entrega sin pedido", entity.StockOut{Mode: entity.ModeDeliverable, Items: []entity.StockOutItem{
			{ProductID: "px", SKU: "X", LocationID: "A", Quantity: 1, InventoryItemID: "i1"},
		}}},
		{"factura sin unidades", entity.FinalizePurchase{PurchaseInvoiceID: "PI-2501-001"}},
		{"venta con cantidad cero", entity.FinalizeSale{SalesOrderID: "SO-2501-001", Units: []entity.SaleUnit{
			{InventoryItemID: "i1", ProductID: "px"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.apply(tt.op)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, 0, f.product("px").Stock.TotalInStock)
		})
	}
}

func TestProductStock_IncluyeLotesEHistorial(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.apply(directIn("px", "X", "A", 4)))
	require.NoError(t, f.apply(transfer("A", "B", 1)))

	rep, err := f.svc.ProductStock(f.ctx, scope, "px", 10)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Product.Stock.TotalInStock)
	assert.Len(t, rep.Items, 2)
	require.Len(t, rep.Events, 2)

	_, err = f.svc.ProductStock(f.ctx, scope, "nope", 10)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
