package entity

import (
	"fmt"
	"sort"
)

// StockSummary totales por ubicación de un producto.
// Invariante: TotalInStock == suma de ByLocation, y ninguna ubicación queda negativa.
type StockSummary struct {
	TotalInStock int            `json:"totalInStock"`
	ByLocation   map[string]int `json:"byLocation"`
}

// At devuelve la cantidad en una ubicación (0 si no existe).
func (s StockSummary) At(locationID string) int {
	return s.ByLocation[locationID]
}

// Clone copia profunda del resumen.
func (s StockSummary) Clone() StockSummary {
	out := StockSummary{TotalInStock: s.TotalInStock, ByLocation: make(map[string]int, len(s.ByLocation))}
	for k, v := range s.ByLocation {
		out.ByLocation[k] = v
	}
	return out
}

// Apply suma delta a la ubicación y al total. Un saldo negativo devuelve error sin modificar el resumen.
// Las ubicaciones que quedan en cero se eliminan del mapa.
func (s *StockSummary) Apply(locationID string, delta int) error {
	next := s.At(locationID) + delta
	if next < 0 {
		return fmt.Errorf("saldo negativo en %s (%d)", locationID, next)
	}
	if s.ByLocation == nil {
		s.ByLocation = make(map[string]int)
	}
	if next == 0 {
		delete(s.ByLocation, locationID)
	} else {
		s.ByLocation[locationID] = next
	}
	s.TotalInStock += delta
	return nil
}

// Consistent verifica el invariante total == suma por ubicación.
func (s StockSummary) Consistent() bool {
	sum := 0
	for _, v := range s.ByLocation {
		if v < 0 {
			return false
		}
		sum += v
	}
	return sum == s.TotalInStock
}

// Locations devuelve las ubicaciones con saldo, ordenadas.
func (s StockSummary) Locations() []string {
	out := make([]string, 0, len(s.ByLocation))
	for k := range s.ByLocation {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
