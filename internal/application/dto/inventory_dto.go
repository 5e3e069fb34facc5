package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EnqueueRequest body para POST /api/sync/actions. Operation lleva la variante según Type.
type EnqueueRequest struct {
	Type      string          `json:"type" validate:"required,oneof=STOCK_IN STOCK_OUT TRANSFER FINALIZE_PURCHASE FINALIZE_SALE"`
	Operation json.RawMessage `json:"operation" validate:"required"`
}

// EnqueueResponse acción aceptada en la cola local.
type EnqueueResponse struct {
	ActionID string `json:"action_id"`
	Token    string `json:"token"`
	BatchID  string `json:"batch_id,omitempty"`
	Pending  int    `json:"pending"`
}

// QueuedActionResponse acción pendiente o descartada tal como se ve en la cola.
type QueuedActionResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	UserName   string          `json:"user_name"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Operation  json.RawMessage `json:"operation,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	FailedAt   *time.Time      `json:"failed_at,omitempty"`
}

// ItemResponse lote del libro de inventario.
type ItemResponse struct {
	ID         string          `json:"id"`
	Serial     string          `json:"serial,omitempty"`
	Quantity   int             `json:"quantity"`
	LocationID string          `json:"location_id"`
	Status     string          `json:"status"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	ReceivedAt time.Time       `json:"received_at"`
}

// EventResponse entrada del historial.
type EventResponse struct {
	Type           string    `json:"type"`
	Quantity       int       `json:"quantity"`
	Serial         string    `json:"serial,omitempty"`
	FromLocationID string    `json:"from_location_id,omitempty"`
	ToLocationID   string    `json:"to_location_id,omitempty"`
	ReferenceID    string    `json:"reference_id,omitempty"`
	UserName       string    `json:"user_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// StockReportResponse salida de GET /api/products/:id/stock.
type StockReportResponse struct {
	Product ProductResponse `json:"product"`
	Items   []ItemResponse  `json:"items"`
	Events  []EventResponse `json:"events"`
}

// SyncStatusResponse estado de la compuerta y de la cola.
type SyncStatusResponse struct {
	Online      bool       `json:"online"`
	Reachable   bool       `json:"reachable"`
	Syncing     bool       `json:"syncing"`
	Pending     int        `json:"pending"`
	DeadLetters int        `json:"dead_letters"`
	LastError   string     `json:"last_error,omitempty"`
	LastDrainAt *time.Time `json:"last_drain_at,omitempty"`
	UserName    string     `json:"user_name,omitempty"`
}

// DrainResponse resultado de un vaciado manual.
type DrainResponse struct {
	Skipped      bool   `json:"skipped"`
	Applied      int    `json:"applied"`
	DeadLettered int    `json:"dead_lettered"`
	Remaining    int    `json:"remaining"`
	Halted       bool   `json:"halted"`
	Error        string `json:"error,omitempty"`
}
