package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseLineRequest línea de una factura de compra.
type PurchaseLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreatePurchaseInvoiceRequest body para POST /api/purchase-invoices.
type CreatePurchaseInvoiceRequest struct {
	SupplierName  string                `json:"supplier_name" validate:"required,max=200"`
	InvoiceNumber string                `json:"invoice_number" validate:"max=100"`
	Lines         []PurchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// SalesLineRequest línea de un pedido de venta.
type SalesLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateSalesOrderRequest body para POST /api/sales-orders.
type CreateSalesOrderRequest struct {
	CustomerName string             `json:"customer_name" validate:"required,max=200"`
	LocationID   string             `json:"location_id" validate:"required"`
	Lines        []SalesLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// DocumentLineResponse línea de documento con su avance (recibido o entregado).
type DocumentLineResponse struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	Done      int             `json:"done"`
	UnitValue decimal.Decimal `json:"unit_value"`
}

// DocumentResponse salida común de facturas de compra y pedidos de venta.
type DocumentResponse struct {
	ID          string                 `json:"id"`
	Party       string                 `json:"party"`
	Reference   string                 `json:"reference,omitempty"`
	LocationID  string                 `json:"location_id,omitempty"`
	Status      string                 `json:"status"`
	Total       decimal.Decimal        `json:"total"`
	Lines       []DocumentLineResponse `json:"lines"`
	CreatedBy   string                 `json:"created_by"`
	CreatedAt   time.Time              `json:"created_at"`
	FinalizedAt *time.Time             `json:"finalized_at,omitempty"`
}

// BatchResponse lote pendiente de recepción o de entrega.
type BatchResponse struct {
	BatchID       string              `json:"batch_id"`
	Kind          string              `json:"kind"`
	SalesOrderID  string              `json:"sales_order_id,omitempty"`
	Items         []BatchItemResponse `json:"items"`
	CreatedByName string              `json:"created_by_name"`
	CreatedAt     time.Time           `json:"created_at"`
}

// BatchItemResponse renglón de lote pendiente.
type BatchItemResponse struct {
	ProductID        string          `json:"product_id"`
	SKU              string          `json:"sku"`
	LocationID       string          `json:"location_id"`
	Quantity         int             `json:"quantity"`
	Serials          []string        `json:"serials,omitempty"`
	InventoryItemIDs []string        `json:"inventory_item_ids,omitempty"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
}
