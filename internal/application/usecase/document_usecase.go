package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/sequence"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

// DocumentUseCase alta y consulta de facturas de compra, pedidos de venta y lotes pendientes.
// El consecutivo del documento se reserva en la misma transacción que lo crea.
type DocumentUseCase struct {
	tx    repository.TxRunner
	gate  Guard
	scope string
	now   func() time.Time
}

// NewDocumentUseCase construye el caso de uso. now nil = time.Now.
func NewDocumentUseCase(tx repository.TxRunner, gate Guard, scopeID string, now func() time.Time) *DocumentUseCase {
	if now == nil {
		now = time.Now
	}
	return &DocumentUseCase{tx: tx, gate: gate, scope: scopeID, now: now}
}

// CreatePurchaseInvoice crea una factura de compra numerada PI-YYMM-NNN.
func (uc *DocumentUseCase) CreatePurchaseInvoice(ctx context.Context, userID string, in dto.CreatePurchaseInvoiceRequest) (*dto.DocumentResponse, error) {
	if err := uc.gate.Guard(); err != nil {
		return nil, err
	}
	now := uc.now()
	var inv *entity.PurchaseInvoice
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		lines := make([]entity.PurchaseLine, 0, len(in.Lines))
		total := decimal.Zero
		for i, l := range in.Lines {
			p, err := catalogProduct(ctx, tx, i, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			if l.UnitCost.IsNegative() {
				return fmt.Errorf("%w: línea %d: costo negativo", domain.ErrInvalidInput, i+1)
			}
			lines = append(lines, entity.PurchaseLine{ProductID: p.ID, SKU: p.SKU, Quantity: l.Quantity, UnitCost: l.UnitCost})
			total = total.Add(l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
		id, err := sequence.Next(ctx, tx.Counters, sequence.PrefixPurchase, now)
		if err != nil {
			return err
		}
		inv = &entity.PurchaseInvoice{
			ID:            id,
			SupplierName:  in.SupplierName,
			InvoiceNumber: in.InvoiceNumber,
			Lines:         lines,
			Status:        entity.DocumentPending,
			Total:         total,
			CreatedBy:     userID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return tx.Purchases.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return purchaseResponse(inv), nil
}

// CreateSalesOrder crea un pedido de venta numerado SO-YYMM-NNN.
func (uc *DocumentUseCase) CreateSalesOrder(ctx context.Context, userID string, in dto.CreateSalesOrderRequest) (*dto.DocumentResponse, error) {
	if err := uc.gate.Guard(); err != nil {
		return nil, err
	}
	now := uc.now()
	var order *entity.SalesOrder
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		loc, err := tx.Locations.GetByID(ctx, in.LocationID)
		if err != nil {
			return err
		}
		if loc == nil {
			return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, in.LocationID)
		}
		lines := make([]entity.SalesLine, 0, len(in.Lines))
		total := decimal.Zero
		for i, l := range in.Lines {
			p, err := catalogProduct(ctx, tx, i, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			if l.UnitPrice.IsNegative() {
				return fmt.Errorf("%w: línea %d: precio negativo", domain.ErrInvalidInput, i+1)
			}
			lines = append(lines, entity.SalesLine{ProductID: p.ID, SKU: p.SKU, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
			total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
		id, err := sequence.Next(ctx, tx.Counters, sequence.PrefixSalesOrder, now)
		if err != nil {
			return err
		}
		order = &entity.SalesOrder{
			ID:           id,
			CustomerName: in.CustomerName,
			LocationID:   in.LocationID,
			Lines:        lines,
			Status:       entity.DocumentPending,
			Total:        total,
			CreatedBy:    userID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Sales.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return salesResponse(order), nil
}

// GetPurchaseInvoice devuelve la factura o (nil, nil).
func (uc *DocumentUseCase) GetPurchaseInvoice(ctx context.Context, id string) (*dto.DocumentResponse, error) {
	var inv *entity.PurchaseInvoice
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		var err error
		inv, err = tx.Purchases.GetByID(ctx, id)
		return err
	})
	if err != nil || inv == nil {
		return nil, err
	}
	return purchaseResponse(inv), nil
}

// GetSalesOrder devuelve el pedido o (nil, nil).
func (uc *DocumentUseCase) GetSalesOrder(ctx context.Context, id string) (*dto.DocumentResponse, error) {
	var order *entity.SalesOrder
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		var err error
		order, err = tx.Sales.GetByID(ctx, id)
		return err
	})
	if err != nil || order == nil {
		return nil, err
	}
	return salesResponse(order), nil
}

// ListBatches lotes pendientes del tipo indicado ("" = todos).
func (uc *DocumentUseCase) ListBatches(ctx context.Context, kind entity.BatchKind) ([]dto.BatchResponse, error) {
	var list []*entity.PendingBatch
	err := uc.tx.Run(ctx, uc.scope, func(tx repository.Tx) error {
		var err error
		list, err = tx.Batches.List(ctx, kind)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.BatchResponse, 0, len(list))
	for _, b := range list {
		items := make([]dto.BatchItemResponse, 0, len(b.Items))
		for _, it := range b.Items {
			items = append(items, dto.BatchItemResponse{
				ProductID:        it.ProductID,
				SKU:              it.SKU,
				LocationID:       it.LocationID,
				Quantity:         it.Quantity,
				Serials:          slices.Clone(it.Serials),
				InventoryItemIDs: slices.Clone(it.InventoryItemIDs),
				UnitCost:         it.UnitCost,
			})
		}
		out = append(out, dto.BatchResponse{
			BatchID:       b.BatchID,
			Kind:          string(b.Kind),
			SalesOrderID:  b.SalesOrderID,
			Items:         items,
			CreatedByName: b.CreatedByName,
			CreatedAt:     b.CreatedAt,
		})
	}
	return out, nil
}

func catalogProduct(ctx context.Context, tx repository.Tx, i int, productID string, qty int) (*entity.Product, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: línea %d: cantidad debe ser positiva", domain.ErrInvalidInput, i+1)
	}
	p, err := tx.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: línea %d: producto %s", domain.ErrNotFound, i+1, productID)
	}
	return p, nil
}

func purchaseResponse(inv *entity.PurchaseInvoice) *dto.DocumentResponse {
	lines := make([]dto.DocumentLineResponse, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, dto.DocumentLineResponse{
			ProductID: l.ProductID, SKU: l.SKU, Quantity: l.Quantity, Done: l.ReceivedQty, UnitValue: l.UnitCost,
		})
	}
	return &dto.DocumentResponse{
		ID:          inv.ID,
		Party:       inv.SupplierName,
		Reference:   inv.InvoiceNumber,
		Status:      string(inv.Status),
		Total:       inv.Total,
		Lines:       lines,
		CreatedBy:   inv.CreatedBy,
		CreatedAt:   inv.CreatedAt,
		FinalizedAt: inv.FinalizedAt,
	}
}

func salesResponse(o *entity.SalesOrder) *dto.DocumentResponse {
	lines := make([]dto.DocumentLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, dto.DocumentLineResponse{
			ProductID: l.ProductID, SKU: l.SKU, Quantity: l.Quantity, Done: l.DeliveredQty, UnitValue: l.UnitPrice,
		})
	}
	return &dto.DocumentResponse{
		ID:          o.ID,
		Party:       o.CustomerName,
		LocationID:  o.LocationID,
		Status:      string(o.Status),
		Total:       o.Total,
		Lines:       lines,
		CreatedBy:   o.CreatedBy,
		CreatedAt:   o.CreatedAt,
		FinalizedAt: o.FinalizedAt,
	}
}
