package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus ciclo de vida de un lote o unidad del libro.
type ItemStatus string

const (
	ItemInStock   ItemStatus = "in_stock"
	ItemDelivered ItemStatus = "delivered"
)

// InventoryItem lote o unidad serializada en una ubicación. Nunca se borra: solo cambia de estado.
type InventoryItem struct {
	ID           string
	ProductID    string
	SKU          string
	Quantity     int // 1 si es serializado
	Serial       string
	IsSerialized bool
	LocationID   string
	Status       ItemStatus
	UnitCost     decimal.Decimal
	ReceivedAt   time.Time
	ReceivedBy   string
	AuthorizedBy string
	Delivery     *DeliveryDetails
	SourceToken  string // token de idempotencia de la acción que lo creó
	UpdatedAt    time.Time
}

// DeliveryDetails datos de entrega cuando el lote pasa a delivered.
type DeliveryDetails struct {
	SalesOrderID string    `json:"salesOrderId,omitempty"`
	BatchID      string    `json:"batchId,omitempty"`
	DeliveredBy  string    `json:"deliveredBy"`
	DeliveredAt  time.Time `json:"deliveredAt"`
}

// Available indica si el lote sigue disponible para salida.
func (i *InventoryItem) Available() bool {
	return i.Status == ItemInStock && i.Quantity > 0
}
