package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

// LookupUseCase marcas y categorías del catálogo.
type LookupUseCase struct {
	tx    repository.TxRunner
	gate  Guard
	scope string
	now   func() time.Time
}

// NewLookupUseCase construye el caso de uso.
func NewLookupUseCase(tx repository.TxRunner, gate Guard, scopeID string) *LookupUseCase {
	return &LookupUseCase{tx: tx, gate: gate, scope: scopeID, now: time.Now}
}

// Add agrega un valor a la lista. Devuelve ErrDuplicate si ya existe sin distinguir mayúsculas.
func (uc *LookupUseCase) Add(ctx context.Context, in dto.CreateLookupRequest) (*dto.LookupItemResponse, error) {
	if err := uc.gate.Guard(); err != nil {
		return nil, err
	}
	if !entity.ValidLookupKind(in.Kind) {
		return nil, fmt.Errorf("%w: lista %q desconocida", domain.ErrInvalidInput, in.Kind)
	}
	value := strings.TrimSpace(in.Value)
	if value == "" {
		return nil, fmt.Errorf("%w: valor vacío", domain.ErrInvalidInput)
	}
	item := &entity.LookupItem{
		ID:        uuid.New().String(),
		Kind:      in.Kind,
		Value:     value,
		CreatedAt: uc.now(),
	}
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		if err := tx.Lookups.Create(ctx, item); err != nil {
			return fmt.Errorf("%w: %s %q", err, in.Kind, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toLookupItemResponse(item), nil
}

// List devuelve las listas; kind vacío devuelve ambas.
func (uc *LookupUseCase) List(ctx context.Context, kind string) (*dto.LookupListResponse, error) {
	if kind != "" && !entity.ValidLookupKind(kind) {
		return nil, fmt.Errorf("%w: lista %q desconocida", domain.ErrInvalidInput, kind)
	}
	var list []*entity.LookupItem
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		var err error
		list, err = tx.Lookups.List(ctx, kind)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := &dto.LookupListResponse{
		Brands:     []dto.LookupItemResponse{},
		Categories: []dto.LookupItemResponse{},
	}
	for _, l := range list {
		switch l.Kind {
		case entity.LookupBrands:
			out.Brands = append(out.Brands, *toLookupItemResponse(l))
		case entity.LookupCategories:
			out.Categories = append(out.Categories, *toLookupItemResponse(l))
		}
	}
	return out, nil
}

// Delete elimina un valor por ID.
func (uc *LookupUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.gate.Guard(); err != nil {
		return err
	}
	return uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		return tx.Lookups.Delete(ctx, id)
	})
}

func toLookupItemResponse(l *entity.LookupItem) *dto.LookupItemResponse {
	return &dto.LookupItemResponse{
		ID:        l.ID,
		Kind:      l.Kind,
		Value:     l.Value,
		CreatedAt: l.CreatedAt,
	}
}
