package repository

import (
	"context"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// PendingBatchRepository puerto de lotes pendientes de recepción y de entrega.
type PendingBatchRepository interface {
	Create(ctx context.Context, batch *entity.PendingBatch) error
	GetForUpdate(ctx context.Context, batchID string) (*entity.PendingBatch, error)
	Update(ctx context.Context, batch *entity.PendingBatch) error
	Delete(ctx context.Context, batchID string) error
	List(ctx context.Context, kind entity.BatchKind) ([]*entity.PendingBatch, error)
}
