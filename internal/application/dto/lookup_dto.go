package dto

import "time"

// CreateLookupRequest entrada para agregar una marca o categoría.
type CreateLookupRequest struct {
	Kind  string `json:"kind" validate:"required,oneof=brands categories"`
	Value string `json:"value" validate:"required,min=1,max=100"`
}

// LookupItemResponse salida de un valor de lista auxiliar.
type LookupItemResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// LookupListResponse valores agrupados por lista.
type LookupListResponse struct {
	Brands     []LookupItemResponse `json:"brands"`
	Categories []LookupItemResponse `json:"categories"`
}
