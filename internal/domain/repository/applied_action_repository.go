package repository

import (
	"context"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// AppliedActionRepository registro de tokens de idempotencia ya confirmados.
type AppliedActionRepository interface {
	Exists(ctx context.Context, token string) (bool, error)
	Create(ctx context.Context, applied *entity.AppliedAction) error
}
