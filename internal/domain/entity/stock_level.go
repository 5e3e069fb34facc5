package entity

import "time"

// StockLevel contador por SKU y ubicación del flujo ligero heredado (documento "sku@location").
//
// Deprecated: el libro de lotes (InventoryItem) y el resumen del producto son la fuente de verdad.
// StockLevel no alimenta ProductStockSummary ni las validaciones de salida/traslado por lotes.
type StockLevel struct {
	ID         string // sku@location
	SKU        string
	LocationID string
	Quantity   int
	UpdatedAt  time.Time
}

// StockLevelKey arma la llave del documento heredado.
func StockLevelKey(sku, locationID string) string {
	return sku + "@" + locationID
}
