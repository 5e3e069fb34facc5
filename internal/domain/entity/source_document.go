package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentStatus estado derivado de un documento fuente.
type DocumentStatus string

const (
	DocumentPending           DocumentStatus = "PENDING"
	DocumentPartiallyReceived DocumentStatus = "PARTIALLY_RECEIVED"
	DocumentPartiallyShipped  DocumentStatus = "PARTIALLY_SHIPPED"
	DocumentFinalized         DocumentStatus = "FINALIZED"
)

// PurchaseInvoice factura de compra cuyas líneas se reciben contra lotes pendientes.
type PurchaseInvoice struct {
	ID            string // PI-YYMM-NNN
	SupplierName  string
	InvoiceNumber string // número del proveedor
	Lines         []PurchaseLine
	Status        DocumentStatus
	Total         decimal.Decimal
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	FinalizedAt   *time.Time
}

// PurchaseLine línea de compra con contador de recibido.
type PurchaseLine struct {
	ProductID   string          `json:"productId"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	ReceivedQty int             `json:"receivedQty"`
	UnitCost    decimal.Decimal `json:"unitCost"`
}

// SalesOrder pedido de venta cuyas líneas se entregan desde el libro de inventario.
type SalesOrder struct {
	ID           string // SO-YYMM-NNN
	CustomerName string
	LocationID   string
	Lines        []SalesLine
	Status       DocumentStatus
	Total        decimal.Decimal
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinalizedAt  *time.Time
}

// SalesLine línea de venta con contador de entregado.
type SalesLine struct {
	ProductID    string          `json:"productId"`
	SKU          string          `json:"sku"`
	Quantity     int             `json:"quantity"`
	DeliveredQty int             `json:"deliveredQty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
}
