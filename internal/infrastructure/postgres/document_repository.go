package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

var (
	_ repository.PurchaseInvoiceRepository = (*PurchaseInvoiceRepo)(nil)
	_ repository.SalesOrderRepository      = (*SalesOrderRepo)(nil)
)

// ─────────────────────────────────────────────────────────────────────────────
// Facturas de compra
// ─────────────────────────────────────────────────────────────────────────────

// PurchaseInvoiceRepo facturas de compra; las líneas (con su recibido) van en JSONB.
type PurchaseInvoiceRepo struct {
	q     Querier
	scope string
}

// NewPurchaseInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseInvoiceRepository(q Querier, scopeID string) *PurchaseInvoiceRepo {
	return &PurchaseInvoiceRepo{q: q, scope: scopeID}
}

const purchaseColumns = `id, supplier_name, invoice_number, lines, status, total, created_by, created_at, updated_at, finalized_at`

// Create persiste una factura de compra.
func (r *PurchaseInvoiceRepo) Create(ctx context.Context, inv *entity.PurchaseInvoice) error {
	lines, err := json.Marshal(inv.Lines)
	if err != nil {
		return fmt.Errorf("encode purchase lines: %w", err)
	}
	query := `
		INSERT INTO purchase_invoices (scope_id, ` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.q.Exec(ctx, query,
		r.scope, inv.ID, inv.SupplierName, inv.InvoiceNumber, lines, string(inv.Status), inv.Total,
		inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt, inv.FinalizedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert purchase invoice: %w", err)
	}
	return nil
}

// GetByID obtiene la factura o (nil, nil).
func (r *PurchaseInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseInvoice, error) {
	return r.get(ctx, `SELECT `+purchaseColumns+` FROM purchase_invoices WHERE scope_id = $1 AND id = $2`, id)
}

// GetForUpdate obtiene la factura bloqueada o (nil, nil).
func (r *PurchaseInvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseInvoice, error) {
	return r.get(ctx, `SELECT `+purchaseColumns+` FROM purchase_invoices WHERE scope_id = $1 AND id = $2 FOR UPDATE`, id)
}

func (r *PurchaseInvoiceRepo) get(ctx context.Context, query, id string) (*entity.PurchaseInvoice, error) {
	var (
		inv    entity.PurchaseInvoice
		lines  []byte
		status string
	)
	err := r.q.QueryRow(ctx, query, r.scope, id).Scan(&inv.ID, &inv.SupplierName, &inv.InvoiceNumber, &lines,
		&status, &inv.Total, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt, &inv.FinalizedAt)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase invoice: %w", err)
	}
	inv.Status = entity.DocumentStatus(status)
	if err := json.Unmarshal(lines, &inv.Lines); err != nil {
		return nil, fmt.Errorf("decode purchase lines: %w", err)
	}
	return &inv, nil
}

// Update reescribe líneas, estado y fecha de cierre.
func (r *PurchaseInvoiceRepo) Update(ctx context.Context, inv *entity.PurchaseInvoice) error {
	lines, err := json.Marshal(inv.Lines)
	if err != nil {
		return fmt.Errorf("encode purchase lines: %w", err)
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE purchase_invoices SET lines = $3, status = $4, total = $5, updated_at = $6, finalized_at = $7
		WHERE scope_id = $1 AND id = $2`,
		r.scope, inv.ID, lines, string(inv.Status), inv.Total, inv.UpdatedAt, inv.FinalizedAt,
	)
	if err != nil {
		return fmt.Errorf("update purchase invoice: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Pedidos de venta
// ─────────────────────────────────────────────────────────────────────────────

// SalesOrderRepo pedidos de venta; las líneas (con su entregado) van en JSONB.
type SalesOrderRepo struct {
	q     Querier
	scope string
}

// NewSalesOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSalesOrderRepository(q Querier, scopeID string) *SalesOrderRepo {
	return &SalesOrderRepo{q: q, scope: scopeID}
}

const salesColumns = `id, customer_name, location_id, lines, status, total, created_by, created_at, updated_at, finalized_at`

// Create persiste un pedido de venta.
func (r *SalesOrderRepo) Create(ctx context.Context, o *entity.SalesOrder) error {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("encode sales lines: %w", err)
	}
	query := `
		INSERT INTO sales_orders (scope_id, ` + salesColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.q.Exec(ctx, query,
		r.scope, o.ID, o.CustomerName, o.LocationID, lines, string(o.Status), o.Total,
		o.CreatedBy, o.CreatedAt, o.UpdatedAt, o.FinalizedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sales order: %w", err)
	}
	return nil
}

// GetByID obtiene el pedido o (nil, nil).
func (r *SalesOrderRepo) GetByID(ctx context.Context, id string) (*entity.SalesOrder, error) {
	return r.get(ctx, `SELECT `+salesColumns+` FROM sales_orders WHERE scope_id = $1 AND id = $2`, id)
}

// GetForUpdate obtiene el pedido bloqueado o (nil, nil).
func (r *SalesOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.SalesOrder, error) {
	return r.get(ctx, `SELECT `+salesColumns+` FROM sales_orders WHERE scope_id = $1 AND id = $2 FOR UPDATE`, id)
}

func (r *SalesOrderRepo) get(ctx context.Context, query, id string) (*entity.SalesOrder, error) {
	var (
		o      entity.SalesOrder
		lines  []byte
		status string
	)
	err := r.q.QueryRow(ctx, query, r.scope, id).Scan(&o.ID, &o.CustomerName, &o.LocationID, &lines,
		&status, &o.Total, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt, &o.FinalizedAt)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	o.Status = entity.DocumentStatus(status)
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		return nil, fmt.Errorf("decode sales lines: %w", err)
	}
	return &o, nil
}

// Update reescribe líneas, estado y fecha de cierre.
func (r *SalesOrderRepo) Update(ctx context.Context, o *entity.SalesOrder) error {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("encode sales lines: %w", err)
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE sales_orders SET lines = $3, status = $4, total = $5, updated_at = $6, finalized_at = $7
		WHERE scope_id = $1 AND id = $2`,
		r.scope, o.ID, lines, string(o.Status), o.Total, o.UpdatedAt, o.FinalizedAt,
	)
	if err != nil {
		return fmt.Errorf("update sales order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
