package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchKind distingue recepciones pendientes (compras) de entregas pendientes (ventas).
type BatchKind string

const (
	BatchReceivable  BatchKind = "RECEIVABLE"
	BatchDeliverable BatchKind = "DELIVERABLE"
)

// BatchStatusPending único estado persistido: el lote se borra al vaciarse.
const BatchStatusPending = "PENDING"

// PendingBatch cantidades recibidas o apartadas que aún no se concilian contra un documento fuente.
type PendingBatch struct {
	BatchID       string // BI-YYMM-NNN o BO-YYMM-NNN
	Kind          BatchKind
	Status        string
	SalesOrderID  string // solo entregas
	Items         []BatchItem
	CreatedBy     string
	CreatedByName string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BatchItem renglón del lote pendiente.
type BatchItem struct {
	ProductID        string          `json:"productId"`
	SKU              string          `json:"sku"`
	LocationID       string          `json:"locationId"`
	Quantity         int             `json:"quantity"`
	Serials          []string        `json:"serials,omitempty"`
	InventoryItemIDs []string        `json:"inventoryItemIds,omitempty"`
	UnitCost         decimal.Decimal `json:"unitCost"`
}

// Empty indica que no quedan cantidades por conciliar.
func (b *PendingBatch) Empty() bool {
	for _, it := range b.Items {
		if it.Quantity > 0 {
			return false
		}
	}
	return true
}
