package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL serializable.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y al scope, y hace Commit o Rollback.
// Un conflicto de serialización vuelve como error transitorio y la acción se reintenta en el siguiente drenado.
func (r *TxRunner) Run(ctx context.Context, scopeID string, fn func(tx repository.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(Bind(tx, scopeID)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Bind arma el juego de repositorios sobre q (pool o tx) para un scope.
func Bind(q Querier, scopeID string) repository.Tx {
	return repository.Tx{
		Products:    NewProductRepository(q, scopeID),
		Locations:   NewLocationRepository(q, scopeID),
		Lookups:     NewLookupRepository(q, scopeID),
		Items:       NewInventoryItemRepository(q, scopeID),
		Batches:     NewPendingBatchRepository(q, scopeID),
		Purchases:   NewPurchaseInvoiceRepository(q, scopeID),
		Sales:       NewSalesOrderRepository(q, scopeID),
		Counters:    NewSequenceCounterRepository(q, scopeID),
		Events:      NewInventoryEventRepository(q, scopeID),
		Applied:     NewAppliedActionRepository(q, scopeID),
		StockLevels: NewStockLevelRepository(q, scopeID),
	}
}
