package inventory

import (
	"fmt"
	"slices"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// Reglas por variante. Se aplican al encolar y otra vez dentro de cada handler.

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...)
}

// checkLine reglas comunes a un renglón con cantidad o seriales.
func checkLine(i int, productID, sku string, quantity int, serials []string, locations ...string) error {
	if productID == "" || sku == "" {
		return invalid("renglón %d: producto y sku son obligatorios", i)
	}
	for _, loc := range locations {
		if loc == "" {
			return invalid("renglón %d: ubicación obligatoria", i)
		}
	}
	if quantity < 0 {
		return invalid("renglón %d: cantidad negativa", i)
	}
	if len(serials) > 0 {
		if quantity != 0 && quantity != len(serials) {
			return invalid("renglón %d: cantidad %d no coincide con %d seriales", i, quantity, len(serials))
		}
		sorted := slices.Clone(serials)
		slices.Sort(sorted)
		if len(slices.Compact(sorted)) != len(serials) || slices.Contains(serials, "") {
			return invalid("renglón %d: seriales repetidos o vacíos", i)
		}
		return nil
	}
	if quantity == 0 {
		return invalid("renglón %d: cantidad debe ser positiva", i)
	}
	return nil
}

// checkSerialized un producto serializado exige seriales y uno no serializado los rechaza.
func checkSerialized(i int, sku string, isSerialized bool, serials []string) error {
	switch {
	case isSerialized && len(serials) == 0:
		return invalid("renglón %d: %s es serializado y requiere seriales", i, sku)
	case !isSerialized && len(serials) > 0:
		return invalid("renglón %d: %s no es serializado", i, sku)
	}
	return nil
}

// Validate aplica las reglas de cada variante sin tocar el almacén.
func Validate(op entity.Operation) error {
	switch o := op.(type) {
	case entity.StockIn:
		return validateStockIn(o)
	case entity.StockOut:
		return validateStockOut(o)
	case entity.Transfer:
		return validateTransfer(o)
	case entity.FinalizePurchase:
		return validateFinalizePurchase(o)
	case entity.FinalizeSale:
		return validateFinalizeSale(o)
	case nil:
		return invalid("operación vacía")
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnknownAction, o)
	}
}
