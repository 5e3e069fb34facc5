package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

// LocationUseCase casos de uso CRUD para ubicaciones.
type LocationUseCase struct {
	tx    repository.TxRunner
	gate  Guard
	scope string
	now   func() time.Time
}

// NewLocationUseCase construye el caso de uso.
func NewLocationUseCase(tx repository.TxRunner, gate Guard, scopeID string) *LocationUseCase {
	return &LocationUseCase{tx: tx, gate: gate, scope: scopeID, now: time.Now}
}

// Create crea una nueva ubicación. Si no viene ID se genera uno.
func (uc *LocationUseCase) Create(ctx context.Context, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	if err := uc.gate.Guard(); err != nil {
		return nil, err
	}
	id := in.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := uc.now()
	location := &entity.Location{
		ID:        id,
		Name:      in.Name,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		return tx.Locations.Create(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

// GetByID obtiene una ubicación por ID. (nil, nil) si no existe.
func (uc *LocationUseCase) GetByID(ctx context.Context, id string) (*dto.LocationResponse, error) {
	var location *entity.Location
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		var err error
		location, err = tx.Locations.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, nil
	}
	return toLocationResponse(location), nil
}

// Update actualiza una ubicación.
func (uc *LocationUseCase) Update(ctx context.Context, id string, in dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	if err := uc.gate.Guard(); err != nil {
		return nil, err
	}
	var location *entity.Location
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		var err error
		location, err = tx.Locations.GetByID(ctx, id)
		if err != nil || location == nil {
			return err
		}
		if in.Name != nil {
			location.Name = *in.Name
		}
		if in.Address != nil {
			location.Address = *in.Address
		}
		location.UpdatedAt = uc.now()
		return tx.Locations.Update(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, nil
	}
	return toLocationResponse(location), nil
}

// List lista ubicaciones con paginación.
func (uc *LocationUseCase) List(ctx context.Context, limit, offset int) (*dto.LocationListResponse, error) {
	var list []*entity.Location
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		var err error
		list, err = tx.Locations.List(ctx, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		items = append(items, *toLocationResponse(l))
	}
	return &dto.LocationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina una ubicación por ID.
func (uc *LocationUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.gate.Guard(); err != nil {
		return err
	}
	return uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		return tx.Locations.Delete(ctx, id)
	})
}

func toLocationResponse(l *entity.Location) *dto.LocationResponse {
	return &dto.LocationResponse{
		ID:        l.ID,
		Name:      l.Name,
		Address:   l.Address,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}
