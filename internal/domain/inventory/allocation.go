package inventory

import (
	"fmt"
	"sort"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// Allocation porción de un lote tomada para una salida o traslado.
type Allocation struct {
	Item     *entity.InventoryItem
	Quantity int
}

// Full indica que la asignación consume el lote completo.
func (a Allocation) Full() bool {
	return a.Quantity == a.Item.Quantity
}

// AllocateFIFO toma qty unidades de los lotes disponibles en orden de ingreso (más antiguo primero).
// Devuelve ErrInsufficientStock si no alcanza; la entrada no se modifica.
func AllocateFIFO(items []*entity.InventoryItem, qty int) ([]Allocation, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	lots := make([]*entity.InventoryItem, 0, len(items))
	for _, it := range items {
		if it.Available() {
			lots = append(lots, it)
		}
	}
	sort.SliceStable(lots, func(i, j int) bool {
		if lots[i].ReceivedAt.Equal(lots[j].ReceivedAt) {
			return lots[i].ID < lots[j].ID
		}
		return lots[i].ReceivedAt.Before(lots[j].ReceivedAt)
	})

	out := make([]Allocation, 0, 1)
	remaining := qty
	for _, lot := range lots {
		if remaining == 0 {
			break
		}
		take := min(lot.Quantity, remaining)
		out = append(out, Allocation{Item: lot, Quantity: take})
		remaining -= take
	}
	if remaining > 0 {
		return nil, fmt.Errorf("%w: faltan %d unidades", domain.ErrInsufficientStock, remaining)
	}
	return out, nil
}

// AllocateSerials toma las unidades serializadas indicadas. Un serial inexistente o ya entregado
// es ErrInsufficientStock: el stock pudo cambiar desde que el usuario lo seleccionó.
func AllocateSerials(items []*entity.InventoryItem, serials []string) ([]Allocation, error) {
	bySerial := make(map[string]*entity.InventoryItem, len(items))
	for _, it := range items {
		if it.Available() {
			bySerial[it.Serial] = it
		}
	}
	out := make([]Allocation, 0, len(serials))
	for _, s := range serials {
		it, ok := bySerial[s]
		if !ok {
			return nil, fmt.Errorf("%w: serial %s no disponible", domain.ErrInsufficientStock, s)
		}
		delete(bySerial, s)
		out = append(out, Allocation{Item: it, Quantity: it.Quantity})
	}
	return out, nil
}
