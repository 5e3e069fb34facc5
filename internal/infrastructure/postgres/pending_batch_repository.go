package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

var _ repository.PendingBatchRepository = (*PendingBatchRepo)(nil)

// PendingBatchRepo lotes pendientes sobre PostgreSQL; los renglones se guardan como JSONB.
type PendingBatchRepo struct {
	q     Querier
	scope string
}

// NewPendingBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPendingBatchRepository(q Querier, scopeID string) *PendingBatchRepo {
	return &PendingBatchRepo{q: q, scope: scopeID}
}

const batchColumns = `batch_id, kind, status, sales_order_id, items, created_by, created_by_name, created_at, updated_at`

// Create persiste un lote pendiente. Un batch_id repetido devuelve ErrDuplicate.
func (r *PendingBatchRepo) Create(ctx context.Context, b *entity.PendingBatch) error {
	items, err := json.Marshal(b.Items)
	if err != nil {
		return fmt.Errorf("encode batch items: %w", err)
	}
	query := `
		INSERT INTO pending_batches (scope_id, ` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.q.Exec(ctx, query,
		r.scope, b.BatchID, string(b.Kind), b.Status, b.SalesOrderID, items, b.CreatedBy, b.CreatedByName,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert pending batch: %w", err)
	}
	return nil
}

// GetForUpdate obtiene el lote bloqueado o (nil, nil) si no existe.
func (r *PendingBatchRepo) GetForUpdate(ctx context.Context, batchID string) (*entity.PendingBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM pending_batches WHERE scope_id = $1 AND batch_id = $2 FOR UPDATE`
	b, err := scanBatch(r.q.QueryRow(ctx, query, r.scope, batchID))
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pending batch: %w", err)
	}
	return b, nil
}

// Update reescribe los renglones del lote.
func (r *PendingBatchRepo) Update(ctx context.Context, b *entity.PendingBatch) error {
	items, err := json.Marshal(b.Items)
	if err != nil {
		return fmt.Errorf("encode batch items: %w", err)
	}
	cmd, err := r.q.Exec(ctx,
		`UPDATE pending_batches SET items = $3, status = $4, updated_at = $5 WHERE scope_id = $1 AND batch_id = $2`,
		r.scope, b.BatchID, items, b.Status, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update pending batch: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra el lote (se vació al conciliarse). No falla si ya no existe.
func (r *PendingBatchRepo) Delete(ctx context.Context, batchID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM pending_batches WHERE scope_id = $1 AND batch_id = $2`, r.scope, batchID)
	if err != nil {
		return fmt.Errorf("delete pending batch: %w", err)
	}
	return nil
}

// List lotes del tipo indicado (vacío = todos) ordenados por id.
func (r *PendingBatchRepo) List(ctx context.Context, kind entity.BatchKind) ([]*entity.PendingBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM pending_batches
		WHERE scope_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY batch_id`
	rows, err := r.q.Query(ctx, query, r.scope, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list pending batches: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.PendingBatch, 0)
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func scanBatch(row rowScanner) (*entity.PendingBatch, error) {
	var (
		b     entity.PendingBatch
		kind  string
		items []byte
	)
	if err := row.Scan(&b.BatchID, &kind, &b.Status, &b.SalesOrderID, &items, &b.CreatedBy, &b.CreatedByName,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Kind = entity.BatchKind(kind)
	if err := json.Unmarshal(items, &b.Items); err != nil {
		return nil, fmt.Errorf("decode batch items: %w", err)
	}
	return &b, nil
}
