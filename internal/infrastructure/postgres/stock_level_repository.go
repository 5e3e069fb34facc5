package postgres

import (
	"context"
	"fmt"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo contador heredado sku@location sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q     Querier
	scope string
}

// NewStockLevelRepository construye el adaptador del contador heredado.
func NewStockLevelRepository(q Querier, scopeID string) *StockLevelRepo {
	return &StockLevelRepo{q: q, scope: scopeID}
}

// GetForUpdate obtiene el contador y bloquea la fila; si no existe devuelve uno en cero.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, sku, locationID string) (*entity.StockLevel, error) {
	key := entity.StockLevelKey(sku, locationID)
	query := `
		SELECT id, sku, location_id, quantity, updated_at
		FROM stock_levels WHERE scope_id = $1 AND id = $2
		FOR UPDATE`
	var s entity.StockLevel
	err := r.q.QueryRow(ctx, query, r.scope, key).Scan(&s.ID, &s.SKU, &s.LocationID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return &entity.StockLevel{ID: key, SKU: sku, LocationID: locationID}, nil
		}
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad del contador.
func (r *StockLevelRepo) Upsert(ctx context.Context, level *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (scope_id, id, sku, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (scope_id, id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, r.scope, level.ID, level.SKU, level.LocationID, level.Quantity, level.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}
