package postgres

import (
	"context"
	"fmt"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

var (
	_ repository.SequenceCounterRepository = (*SequenceCounterRepo)(nil)
	_ repository.AppliedActionRepository   = (*AppliedActionRepo)(nil)
)

// SequenceCounterRepo contadores de consecutivos por (prefijo, mes).
type SequenceCounterRepo struct {
	q     Querier
	scope string
}

// NewSequenceCounterRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceCounterRepository(q Querier, scopeID string) *SequenceCounterRepo {
	return &SequenceCounterRepo{q: q, scope: scopeID}
}

// GetForUpdate devuelve el contador bloqueado o (nil, nil) si aún no existe.
// Dos transacciones que crean el mismo contador a la vez chocan en el Upsert y una de ellas reintenta.
func (r *SequenceCounterRepo) GetForUpdate(ctx context.Context, id string) (*entity.SequenceCounter, error) {
	var c entity.SequenceCounter
	err := r.q.QueryRow(ctx,
		`SELECT id, count, updated_at FROM sequence_counters WHERE scope_id = $1 AND id = $2 FOR UPDATE`,
		r.scope, id,
	).Scan(&c.ID, &c.Count, &c.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sequence counter: %w", err)
	}
	return &c, nil
}

// Upsert guarda el valor del contador.
func (r *SequenceCounterRepo) Upsert(ctx context.Context, c *entity.SequenceCounter) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sequence_counters (scope_id, id, count, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (scope_id, id)
		DO UPDATE SET count = EXCLUDED.count, updated_at = EXCLUDED.updated_at`,
		r.scope, c.ID, c.Count, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert sequence counter: %w", err)
	}
	return nil
}

// AppliedActionRepo registro de tokens de idempotencia confirmados.
type AppliedActionRepo struct {
	q     Querier
	scope string
}

// NewAppliedActionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAppliedActionRepository(q Querier, scopeID string) *AppliedActionRepo {
	return &AppliedActionRepo{q: q, scope: scopeID}
}

// Exists indica si el token ya se confirmó.
func (r *AppliedActionRepo) Exists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM applied_actions WHERE scope_id = $1 AND token = $2)`,
		r.scope, token,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("applied action exists: %w", err)
	}
	return exists, nil
}

// Create registra el token. Repetido devuelve ErrDuplicate.
func (r *AppliedActionRepo) Create(ctx context.Context, a *entity.AppliedAction) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO applied_actions (scope_id, token, action_id, type, applied_at)
		VALUES ($1, $2, $3, $4, $5)`,
		r.scope, a.Token, a.ActionID, string(a.Type), a.AppliedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert applied action: %w", err)
	}
	return nil
}
