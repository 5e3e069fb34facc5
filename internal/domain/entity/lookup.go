package entity

import "time"

// Listas auxiliares del catálogo.
const (
	LookupBrands     = "brands"
	LookupCategories = "categories"
)

// LookupItem valor de una lista auxiliar (marca o categoría). Value es único por Kind sin
// distinguir mayúsculas.
type LookupItem struct {
	ID        string
	Kind      string
	Value     string
	CreatedAt time.Time
}

// ValidLookupKind indica si kind es una lista conocida.
func ValidLookupKind(kind string) bool {
	return kind == LookupBrands || kind == LookupCategories
}
