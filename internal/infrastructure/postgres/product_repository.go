package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
// El resumen de stock vive en la columna JSONB stock_summary de la misma fila.
type ProductRepo struct {
	q     Querier
	scope string
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier, scopeID string) *ProductRepo {
	return &ProductRepo{q: q, scope: scopeID}
}

const productColumns = `id, sku, name, description, is_serialized, price, cost, stock_summary, created_at, updated_at`

// Create persiste un nuevo producto. Cost inicia en 0 y el resumen vacío.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	summary, err := json.Marshal(normalized(product.Stock))
	if err != nil {
		return fmt.Errorf("encode stock summary: %w", err)
	}
	query := `
		INSERT INTO products (scope_id, id, sku, name, description, is_serialized, price, cost, stock_summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.q.Exec(ctx, query,
		r.scope, product.ID, product.SKU, product.Name, product.Description, product.IsSerialized,
		product.Price, product.Cost, summary, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE scope_id = $1 AND id = $2`, id)
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE scope_id = $1 AND sku = $2`, sku)
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE).
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE scope_id = $1 AND id = $2 FOR UPDATE`, id)
}

func (r *ProductRepo) getOne(ctx context.Context, query, arg string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, r.scope, arg))
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Update actualiza los datos de catálogo. No toca Cost ni Stock (se manejan vía UpdateStock).
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products SET sku = $3, name = $4, description = $5, is_serialized = $6, price = $7, updated_at = $8
		WHERE scope_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		r.scope, product.ID, product.SKU, product.Name, product.Description, product.IsSerialized,
		product.Price, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStock escribe el resumen de stock y el costo promedio (usado por los handlers de inventario).
func (r *ProductRepo) UpdateStock(ctx context.Context, id string, summary entity.StockSummary, cost decimal.Decimal) error {
	raw, err := json.Marshal(normalized(summary))
	if err != nil {
		return fmt.Errorf("encode stock summary: %w", err)
	}
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET stock_summary = $3, cost = $4, updated_at = now() WHERE scope_id = $1 AND id = $2`,
		r.scope, id, raw, cost,
	)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos ordenados por SKU con paginación.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE scope_id = $1 ORDER BY sku LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, r.scope, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE scope_id = $1 AND id = $2`, r.scope, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var (
		p       entity.Product
		summary []byte
	)
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.IsSerialized, &p.Price, &p.Cost,
		&summary, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(summary, &p.Stock); err != nil {
		return nil, fmt.Errorf("decode stock summary: %w", err)
	}
	p.Stock = normalized(p.Stock)
	return &p, nil
}

// normalized evita persistir "byLocation": null.
func normalized(s entity.StockSummary) entity.StockSummary {
	if s.ByLocation == nil {
		s.ByLocation = map[string]int{}
	}
	return s
}
