package repository

import "context"

// Tx agrupa los repositorios atados a una misma transacción y a un mismo tenant (scope).
// Todo lo escrito a través de Tx se confirma o se descarta como una unidad.
type Tx struct {
	Products    ProductRepository
	Locations   LocationRepository
	Lookups     LookupRepository
	Items       InventoryItemRepository
	Batches     PendingBatchRepository
	Purchases   PurchaseInvoiceRepository
	Sales       SalesOrderRepository
	Counters    SequenceCounterRepository
	Events      InventoryEventRepository
	Applied     AppliedActionRepository
	StockLevels StockLevelRepository
}

// TxRunner ejecuta fn dentro de una transacción serializable sobre los documentos del scope.
// Si fn devuelve error se descartan todas las escrituras; si no, se confirman de forma atómica.
type TxRunner interface {
	Run(ctx context.Context, scopeID string, fn func(tx Tx) error) error
}
