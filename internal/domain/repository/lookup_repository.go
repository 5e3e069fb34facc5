package repository

import (
	"context"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// LookupRepository puerto de persistencia para las listas auxiliares del catálogo.
type LookupRepository interface {
	// Create devuelve ErrDuplicate si ya existe el mismo valor (sin distinguir mayúsculas) en la lista.
	Create(ctx context.Context, item *entity.LookupItem) error
	// List devuelve los valores ordenados por lista y valor; kind vacío devuelve todas.
	List(ctx context.Context, kind string) ([]*entity.LookupItem, error)
	Delete(ctx context.Context, id string) error
}
