package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento del historial de inventario.
const (
	EventReceiveStock     = "RECEIVE_STOCK"     // lote pendiente de recepción creado
	EventPurchaseReceived = "PURCHASE_RECEIVED" // lote ingresado al libro por factura de compra
	EventStockIn          = "STOCK_IN"          // ingreso directo
	EventSale             = "SALE"              // salida directa
	EventDeliveryStaged   = "DELIVERY_STAGED"   // entrega pendiente creada
	EventSaleDispatched   = "SALE_DISPATCHED"   // entregado por pedido de venta
	EventTransfer         = "TRANSFER"
	EventStockAdjusted    = "STOCK_ADJUSTED" // flujo heredado sku@location
)

// InventoryEvent entrada del historial (auditoría) de cada paso que toca el inventario.
type InventoryEvent struct {
	ID              string
	Type            string
	ActionID        string
	ProductID       string
	SKU             string
	InventoryItemID string
	Serial          string
	Quantity        int
	FromLocationID  string
	ToLocationID    string
	ReferenceID     string // lote, factura o pedido
	UnitCost        decimal.Decimal
	UserID          string
	UserName        string
	CreatedAt       time.Time
}
