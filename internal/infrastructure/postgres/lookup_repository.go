package postgres

import (
	"context"
	"fmt"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

var _ repository.LookupRepository = (*LookupRepo)(nil)

// LookupRepo listas auxiliares sobre la tabla lookup_items.
type LookupRepo struct {
	q     Querier
	scope string
}

// NewLookupRepository construye el adaptador de persistencia para listas auxiliares.
func NewLookupRepository(q Querier, scopeID string) *LookupRepo {
	return &LookupRepo{q: q, scope: scopeID}
}

// Create inserta un valor. El índice único (scope_id, kind, lower(value)) rechaza duplicados.
func (r *LookupRepo) Create(ctx context.Context, item *entity.LookupItem) error {
	query := `
		INSERT INTO lookup_items (scope_id, id, kind, value, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, r.scope, item.ID, item.Kind, item.Value, item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert lookup: %w", err)
	}
	return nil
}

func (r *LookupRepo) List(ctx context.Context, kind string) ([]*entity.LookupItem, error) {
	query := `
		SELECT id, kind, value, created_at
		FROM lookup_items
		WHERE scope_id = $1 AND ($2::text = '' OR kind = $2)
		ORDER BY kind, lower(value)`
	rows, err := r.q.Query(ctx, query, r.scope, kind)
	if err != nil {
		return nil, fmt.Errorf("list lookups: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.LookupItem, 0)
	for rows.Next() {
		var l entity.LookupItem
		if err := rows.Scan(&l.ID, &l.Kind, &l.Value, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

func (r *LookupRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM lookup_items WHERE scope_id = $1 AND id = $2`, r.scope, id)
	if err != nil {
		return fmt.Errorf("delete lookup: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
