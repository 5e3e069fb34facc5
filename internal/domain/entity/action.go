package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ActionType etiqueta de la variante persistida en la cola.
type ActionType string

const (
	ActionStockIn          ActionType = "STOCK_IN"
	ActionStockOut         ActionType = "STOCK_OUT"
	ActionTransfer         ActionType = "TRANSFER"
	ActionFinalizePurchase ActionType = "FINALIZE_PURCHASE"
	ActionFinalizeSale     ActionType = "FINALIZE_SALE"
)

// StockMode variante de un movimiento de stock.
type StockMode string

const (
	ModeDirect      StockMode = "direct"      // mueve el libro y el resumen en la misma transacción
	ModeReceivable  StockMode = "receivable"  // solo crea lote pendiente de recepción (BI)
	ModeDeliverable StockMode = "deliverable" // solo crea lote pendiente de entrega (BO)
	ModeLegacy      StockMode = "legacy"      // Deprecated: contador sku@location
)

// Operation es la unión cerrada de operaciones encolables. Solo los tipos de este paquete la implementan.
type Operation interface {
	Type() ActionType
	operation()
}

// StockInItem renglón de ingreso.
type StockInItem struct {
	ProductID  string          `json:"productId" validate:"required"`
	SKU        string          `json:"sku" validate:"required"`
	LocationID string          `json:"locationId" validate:"required"`
	Quantity   int             `json:"quantity" validate:"gte=0"`
	Serials    []string        `json:"serials,omitempty" validate:"omitempty,unique,dive,required"`
	UnitCost   decimal.Decimal `json:"unitCost"`
}

// Units cantidad efectiva: número de seriales si los hay.
func (i StockInItem) Units() int {
	if len(i.Serials) > 0 {
		return len(i.Serials)
	}
	return i.Quantity
}

// StockIn ingreso de mercancía.
type StockIn struct {
	Mode      StockMode     `json:"mode,omitempty" validate:"omitempty,oneof=direct receivable legacy"`
	BatchID   string        `json:"batchId,omitempty"`
	Reference string        `json:"reference,omitempty"`
	Items     []StockInItem `json:"items" validate:"required,min=1,dive"`
}

// StockOutItem renglón de salida. InventoryItemID selecciona el lote en modo deliverable.
type StockOutItem struct {
	ProductID       string   `json:"productId" validate:"required"`
	SKU             string   `json:"sku" validate:"required"`
	LocationID      string   `json:"locationId" validate:"required"`
	Quantity        int      `json:"quantity" validate:"gte=0"`
	Serials         []string `json:"serials,omitempty" validate:"omitempty,unique,dive,required"`
	InventoryItemID string   `json:"inventoryItemId,omitempty"`
}

// Units cantidad efectiva: número de seriales si los hay.
func (i StockOutItem) Units() int {
	if len(i.Serials) > 0 {
		return len(i.Serials)
	}
	return i.Quantity
}

// StockOut salida de mercancía.
type StockOut struct {
	Mode         StockMode      `json:"mode,omitempty" validate:"omitempty,oneof=direct deliverable legacy"`
	BatchID      string         `json:"batchId,omitempty"`
	SalesOrderID string         `json:"salesOrderId,omitempty"`
	Items        []StockOutItem `json:"items" validate:"required,min=1,dive"`
}

// TransferItem renglón de traslado entre ubicaciones.
type TransferItem struct {
	ProductID      string   `json:"productId" validate:"required"`
	SKU            string   `json:"sku" validate:"required"`
	FromLocationID string   `json:"fromLocationId" validate:"required"`
	ToLocationID   string   `json:"toLocationId" validate:"required"`
	Quantity       int      `json:"quantity" validate:"gte=0"`
	Serials        []string `json:"serials,omitempty" validate:"omitempty,unique,dive,required"`
}

// Units cantidad efectiva: número de seriales si los hay.
func (i TransferItem) Units() int {
	if len(i.Serials) > 0 {
		return len(i.Serials)
	}
	return i.Quantity
}

// Transfer traslado entre ubicaciones.
type Transfer struct {
	Mode  StockMode      `json:"mode,omitempty" validate:"omitempty,oneof=direct legacy"`
	Items []TransferItem `json:"items" validate:"required,min=1,dive"`
}

// PurchaseUnit unidad o cantidad de un lote de recepción asignada a una factura de compra.
type PurchaseUnit struct {
	BatchID    string          `json:"batchId" validate:"required"`
	ProductID  string          `json:"productId" validate:"required"`
	SKU        string          `json:"sku" validate:"required"`
	LocationID string          `json:"locationId" validate:"required"`
	Quantity   int             `json:"quantity" validate:"gte=0"`
	Serial     string          `json:"serial,omitempty"`
	UnitCost   decimal.Decimal `json:"unitCost"`
}

// Units 1 si es serial, si no la cantidad.
func (u PurchaseUnit) Units() int {
	if u.Serial != "" {
		return 1
	}
	return u.Quantity
}

// FinalizePurchase concilia lotes de recepción contra una factura de compra.
type FinalizePurchase struct {
	PurchaseInvoiceID string         `json:"purchaseInvoiceId" validate:"required"`
	Units             []PurchaseUnit `json:"units" validate:"required,min=1,dive"`
}

// SaleUnit lote del libro asignado a un pedido de venta.
type SaleUnit struct {
	BatchID         string `json:"batchId,omitempty"`
	InventoryItemID string `json:"inventoryItemId" validate:"required"`
	ProductID       string `json:"productId" validate:"required"`
	Quantity        int    `json:"quantity" validate:"gt=0"`
}

// FinalizeSale concilia lotes del libro contra un pedido de venta.
type FinalizeSale struct {
	SalesOrderID string     `json:"salesOrderId" validate:"required"`
	Units        []SaleUnit `json:"units" validate:"required,min=1,dive"`
}

func (StockIn) Type() ActionType          { return ActionStockIn }
func (StockOut) Type() ActionType         { return ActionStockOut }
func (Transfer) Type() ActionType         { return ActionTransfer }
func (FinalizePurchase) Type() ActionType { return ActionFinalizePurchase }
func (FinalizeSale) Type() ActionType     { return ActionFinalizeSale }

func (StockIn) operation()          {}
func (StockOut) operation()         {}
func (Transfer) operation()         {}
func (FinalizePurchase) operation() {}
func (FinalizeSale) operation()     {}

// StagedBatch indica si la operación crea un lote pendiente y con qué prefijo se numera.
func StagedBatch(op Operation) (prefix string, batchID string, ok bool) {
	switch o := op.(type) {
	case StockIn:
		if o.Mode == "" || o.Mode == ModeReceivable {
			return "BI", o.BatchID, true
		}
	case StockOut:
		if o.Mode == ModeDeliverable {
			return "BO", o.BatchID, true
		}
	}
	return "", "", false
}

// WithBatchID devuelve la operación con el id de lote asignado (solo operaciones que crean lote).
func WithBatchID(op Operation, batchID string) Operation {
	switch o := op.(type) {
	case StockIn:
		o.BatchID = batchID
		return o
	case StockOut:
		o.BatchID = batchID
		return o
	}
	return op
}

// UserProfile datos visibles del usuario que encoló la acción.
type UserProfile struct {
	DisplayName string `json:"displayName"`
}

// ActionPayload carga de una acción encolada.
type ActionPayload struct {
	Operation Operation
	UserID    string
	User      UserProfile
}

// QueuedAction acción pendiente en la cola durable. Inmutable una vez encolada.
// Token es la llave de idempotencia con la que los handlers detectan una reaplicación.
type QueuedAction struct {
	ID         string
	Type       ActionType
	Token      string
	Payload    ActionPayload
	EnqueuedAt time.Time

	// raw conserva operationData cuando el tipo no es reconocido, para no perderlo al re-persistir.
	raw json.RawMessage
}

type queuedActionJSON struct {
	ID         string      `json:"id"`
	Type       ActionType  `json:"type"`
	Token      string      `json:"token"`
	Payload    payloadJSON `json:"payload"`
	EnqueuedAt time.Time   `json:"enqueuedAt"`
}

type payloadJSON struct {
	OperationData json.RawMessage `json:"operationData"`
	UserID        string          `json:"userId"`
	User          UserProfile     `json:"user"`
}

// MarshalJSON serializa la acción con operationData según la variante.
func (a QueuedAction) MarshalJSON() ([]byte, error) {
	data := a.raw
	if a.Payload.Operation != nil {
		b, err := json.Marshal(a.Payload.Operation)
		if err != nil {
			return nil, err
		}
		data = b
	}
	if data == nil {
		data = json.RawMessage("null")
	}
	return json.Marshal(queuedActionJSON{
		ID:         a.ID,
		Type:       a.Type,
		Token:      a.Token,
		Payload:    payloadJSON{OperationData: data, UserID: a.Payload.UserID, User: a.Payload.User},
		EnqueuedAt: a.EnqueuedAt,
	})
}

// UnmarshalJSON decodifica la variante según Type. Un tipo desconocido no es error aquí:
// Operation queda nil y el procesador lo descarta al intentar aplicarlo.
func (a *QueuedAction) UnmarshalJSON(b []byte) error {
	var w queuedActionJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*a = QueuedAction{
		ID:         w.ID,
		Type:       w.Type,
		Token:      w.Token,
		Payload:    ActionPayload{UserID: w.Payload.UserID, User: w.Payload.User},
		EnqueuedAt: w.EnqueuedAt,
	}
	op, err := DecodeOperation(w.Type, w.Payload.OperationData)
	if err != nil {
		a.raw = w.Payload.OperationData
		return nil
	}
	a.Payload.Operation = op
	return nil
}

// ErrUnknownOperation se devuelve al decodificar una etiqueta sin variante.
type ErrUnknownOperation struct {
	Type ActionType
}

func (e ErrUnknownOperation) Error() string {
	return fmt.Sprintf("operación desconocida %q", string(e.Type))
}

// DecodeOperation arma la variante correspondiente a la etiqueta.
func DecodeOperation(t ActionType, data []byte) (Operation, error) {
	switch t {
	case ActionStockIn:
		var op StockIn
		if err := decodeInto(data, &op); err != nil {
			return nil, err
		}
		return op, nil
	case ActionStockOut:
		var op StockOut
		if err := decodeInto(data, &op); err != nil {
			return nil, err
		}
		return op, nil
	case ActionTransfer:
		var op Transfer
		if err := decodeInto(data, &op); err != nil {
			return nil, err
		}
		return op, nil
	case ActionFinalizePurchase:
		var op FinalizePurchase
		if err := decodeInto(data, &op); err != nil {
			return nil, err
		}
		return op, nil
	case ActionFinalizeSale:
		var op FinalizeSale
		if err := decodeInto(data, &op); err != nil {
			return nil, err
		}
		return op, nil
	}
	return nil, ErrUnknownOperation{Type: t}
}

func decodeInto(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("operationData vacío")
	}
	return json.Unmarshal(data, v)
}
