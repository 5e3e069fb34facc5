package repository

import (
	"context"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// PurchaseInvoiceRepository puerto de facturas de compra.
type PurchaseInvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.PurchaseInvoice) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseInvoice, error)
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseInvoice, error)
	Update(ctx context.Context, invoice *entity.PurchaseInvoice) error
}

// SalesOrderRepository puerto de pedidos de venta.
type SalesOrderRepository interface {
	Create(ctx context.Context, order *entity.SalesOrder) error
	GetByID(ctx context.Context, id string) (*entity.SalesOrder, error)
	GetForUpdate(ctx context.Context, id string) (*entity.SalesOrder, error)
	Update(ctx context.Context, order *entity.SalesOrder) error
}
