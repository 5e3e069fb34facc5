// Package usecase agrupa los casos de uso en línea del catálogo y de los documentos fuente.
// Escriben directo en el almacén compartido, así que todos pasan primero por el Guard de conectividad.
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

// Guard bloquea las escrituras en línea cuando el proceso está desconectado.
type Guard interface {
	Guard() error
}

// ProductUseCase casos de uso CRUD para productos. Cost y Stock se manejan vía acciones de inventario.
type ProductUseCase struct {
	tx    repository.TxRunner
	gate  Guard
	scope string
	now   func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(tx repository.TxRunner, gate Guard, scopeID string) *ProductUseCase {
	return &ProductUseCase{tx: tx, gate: gate, scope: scopeID, now: time.Now}
}

// Create crea un nuevo producto. Cost inicia en 0.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := uc.gate.Guard(); err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: precio negativo", domain.ErrInvalidInput)
	}
	now := uc.now()
	product := &entity.Product{
		ID:           uuid.New().String(),
		SKU:          in.SKU,
		Name:         in.Name,
		Description:  in.Description,
		IsSerialized: in.IsSerialized,
		Price:        in.Price,
		Cost:         decimal.Zero,
		Stock:        entity.StockSummary{ByLocation: map[string]int{}},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		existing, err := tx.Products.GetBySKU(ctx, in.SKU)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		return tx.Products.Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// GetByID obtiene un producto por ID. (nil, nil) si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	var product *entity.Product
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		var err error
		product, err = tx.Products.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return ToProductResponse(product), nil
}

// Update actualiza datos de catálogo. Cambiar IsSerialized solo se permite sin stock vivo.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if err := uc.gate.Guard(); err != nil {
		return nil, err
	}
	var product *entity.Product
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		var err error
		product, err = tx.Products.GetForUpdate(ctx, id)
		if err != nil || product == nil {
			return err
		}
		if in.Name != nil {
			product.Name = *in.Name
		}
		if in.Description != nil {
			product.Description = *in.Description
		}
		if in.Price != nil {
			if in.Price.IsNegative() {
				return fmt.Errorf("%w: precio negativo", domain.ErrInvalidInput)
			}
			product.Price = *in.Price
		}
		if in.IsSerialized != nil && *in.IsSerialized != product.IsSerialized {
			if product.Stock.TotalInStock > 0 {
				return fmt.Errorf("%w: no se puede cambiar la serialización con stock", domain.ErrInvalidInput)
			}
			product.IsSerialized = *in.IsSerialized
		}
		product.UpdatedAt = uc.now()
		return tx.Products.Update(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return ToProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	var list []*entity.Product
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		var err error
		list, err = tx.Products.List(ctx, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *ToProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina un producto sin stock vivo.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.gate.Guard(); err != nil {
		return err
	}
	return uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		product, err := tx.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		if product.Stock.TotalInStock > 0 {
			return fmt.Errorf("%w: el producto %s tiene %d unidades en stock", domain.ErrInvalidInput, product.SKU, product.Stock.TotalInStock)
		}
		return tx.Products.Delete(ctx, id)
	})
}

// ToProductResponse convierte la entidad al DTO de salida.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	byLocation := make(map[string]int, len(p.Stock.ByLocation))
	for k, v := range p.Stock.ByLocation {
		byLocation[k] = v
	}
	return &dto.ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Description:  p.Description,
		IsSerialized: p.IsSerialized,
		Price:        p.Price,
		Cost:         p.Cost,
		TotalInStock: p.Stock.TotalInStock,
		ByLocation:   byLocation,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
