package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

var _ repository.InventoryEventRepository = (*InventoryEventRepo)(nil)

// InventoryEventRepo historial de inventario sobre PostgreSQL (solo inserción).
type InventoryEventRepo struct {
	q     Querier
	scope string
}

// NewInventoryEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryEventRepository(q Querier, scopeID string) *InventoryEventRepo {
	return &InventoryEventRepo{q: q, scope: scopeID}
}

// Create persiste un evento del historial.
func (r *InventoryEventRepo) Create(ctx context.Context, e *entity.InventoryEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_events (scope_id, id, type, action_id, product_id, sku, inventory_item_id, serial, quantity,
			from_location_id, to_location_id, reference_id, unit_cost, user_id, user_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		r.scope, e.ID, e.Type, e.ActionID, e.ProductID, e.SKU, e.InventoryItemID, e.Serial, e.Quantity,
		e.FromLocationID, e.ToLocationID, e.ReferenceID, e.UnitCost, e.UserID, e.UserName, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create inventory event: %w", err)
	}
	return nil
}

// ListByProduct devuelve los eventos del producto del más reciente al más antiguo. limit <= 0 = sin límite.
func (r *InventoryEventRepo) ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.InventoryEvent, error) {
	query := `
		SELECT id, type, action_id, product_id, sku, inventory_item_id, serial, quantity,
			from_location_id, to_location_id, reference_id, unit_cost, user_id, user_name, created_at
		FROM inventory_events WHERE scope_id = $1 AND product_id = $2
		ORDER BY seq DESC`
	args := []any{r.scope, productID}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events by product: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.InventoryEvent, 0)
	for rows.Next() {
		var e entity.InventoryEvent
		if err := rows.Scan(&e.ID, &e.Type, &e.ActionID, &e.ProductID, &e.SKU, &e.InventoryItemID, &e.Serial,
			&e.Quantity, &e.FromLocationID, &e.ToLocationID, &e.ReferenceID, &e.UnitCost, &e.UserID,
			&e.UserName, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
