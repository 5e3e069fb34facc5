package repository

import (
	"context"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// SequenceCounterRepository puerto de contadores de consecutivos.
type SequenceCounterRepository interface {
	// GetForUpdate devuelve el contador bloqueado o (nil, nil) si aún no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.SequenceCounter, error)
	Upsert(ctx context.Context, counter *entity.SequenceCounter) error
}
