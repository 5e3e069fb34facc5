package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

// InventoryItemRepo libro de lotes sobre PostgreSQL. Los datos de entrega van en JSONB.
type InventoryItemRepo struct {
	q     Querier
	scope string
}

// NewInventoryItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryItemRepository(q Querier, scopeID string) *InventoryItemRepo {
	return &InventoryItemRepo{q: q, scope: scopeID}
}

const itemColumns = `id, product_id, sku, quantity, serial, is_serialized, location_id, status, unit_cost,
	received_at, received_by, authorized_by, delivery, source_token, updated_at`

// Create persiste un lote nuevo.
func (r *InventoryItemRepo) Create(ctx context.Context, i *entity.InventoryItem) error {
	delivery, err := encodeDelivery(i.Delivery)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO inventory_items (scope_id, ` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = r.q.Exec(ctx, query,
		r.scope, i.ID, i.ProductID, i.SKU, i.Quantity, i.Serial, i.IsSerialized, i.LocationID, string(i.Status),
		i.UnitCost, i.ReceivedAt, i.ReceivedBy, i.AuthorizedBy, delivery, i.SourceToken, i.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert inventory item: %w", err)
	}
	return nil
}

// Update reescribe cantidad, ubicación, estado y entrega del lote.
func (r *InventoryItemRepo) Update(ctx context.Context, i *entity.InventoryItem) error {
	delivery, err := encodeDelivery(i.Delivery)
	if err != nil {
		return err
	}
	query := `
		UPDATE inventory_items SET quantity = $3, location_id = $4, status = $5, unit_cost = $6,
			delivery = $7, updated_at = $8
		WHERE scope_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		r.scope, i.ID, i.Quantity, i.LocationID, string(i.Status), i.UnitCost, delivery, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetForUpdate obtiene el lote bloqueado o (nil, nil) si no existe.
func (r *InventoryItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE scope_id = $1 AND id = $2 FOR UPDATE`
	it, err := scanItem(r.q.QueryRow(ctx, query, r.scope, id))
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return it, nil
}

// ListAvailableForUpdate lotes in_stock del producto en la ubicación, del más antiguo al más nuevo (FIFO).
func (r *InventoryItemRepo) ListAvailableForUpdate(ctx context.Context, productID, locationID string) ([]*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items
		WHERE scope_id = $1 AND product_id = $2 AND location_id = $3 AND status = 'in_stock' AND quantity > 0
		ORDER BY received_at, id
		FOR UPDATE`
	return r.list(ctx, query, productID, locationID)
}

// ListByProduct todos los lotes del producto en cualquier estado.
func (r *InventoryItemRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items
		WHERE scope_id = $1 AND product_id = $2
		ORDER BY received_at, id`
	return r.list(ctx, query, productID)
}

// SerialExists indica si el serial ya figura en el libro para el producto.
func (r *InventoryItemRepo) SerialExists(ctx context.Context, productID, serial string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM inventory_items WHERE scope_id = $1 AND product_id = $2 AND serial = $3)`,
		r.scope, productID, serial,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("serial exists: %w", err)
	}
	return exists, nil
}

func (r *InventoryItemRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryItem, error) {
	rows, err := r.q.Query(ctx, query, append([]any{r.scope}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.InventoryItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func scanItem(row rowScanner) (*entity.InventoryItem, error) {
	var (
		i        entity.InventoryItem
		status   string
		delivery []byte
	)
	if err := row.Scan(&i.ID, &i.ProductID, &i.SKU, &i.Quantity, &i.Serial, &i.IsSerialized, &i.LocationID,
		&status, &i.UnitCost, &i.ReceivedAt, &i.ReceivedBy, &i.AuthorizedBy, &delivery, &i.SourceToken,
		&i.UpdatedAt); err != nil {
		return nil, err
	}
	i.Status = entity.ItemStatus(status)
	if len(delivery) > 0 {
		var d entity.DeliveryDetails
		if err := json.Unmarshal(delivery, &d); err != nil {
			return nil, fmt.Errorf("decode delivery: %w", err)
		}
		i.Delivery = &d
	}
	return &i, nil
}

func encodeDelivery(d *entity.DeliveryDetails) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode delivery: %w", err)
	}
	return b, nil
}
