package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo.
// Stock es la proyección denormalizada de los lotes vivos del libro de inventario.
type Product struct {
	ID           string
	SKU          string // código único por tenant
	Name         string
	Description  string
	IsSerialized bool
	Price        decimal.Decimal // precio de venta
	Cost         decimal.Decimal // costo promedio ponderado (inicia en 0)
	Stock        StockSummary
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
