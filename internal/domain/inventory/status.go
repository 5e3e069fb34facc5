package inventory

import "github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"

// DeriveStatus calcula el estado de un documento desde sus contadores por línea.
// FINALIZED si toda línea está completa; partial si hubo algún avance; si no, PENDING.
// Un documento FINALIZED nunca regresa.
func DeriveStatus(current entity.DocumentStatus, ordered, done []int, partial entity.DocumentStatus) entity.DocumentStatus {
	if current == entity.DocumentFinalized {
		return current
	}
	complete := len(ordered) > 0
	progress := false
	for i := range ordered {
		if done[i] < ordered[i] {
			complete = false
		}
		if done[i] > 0 {
			progress = true
		}
	}
	switch {
	case complete:
		return entity.DocumentFinalized
	case progress:
		return partial
	default:
		return entity.DocumentPending
	}
}

// PurchaseStatus estado derivado de una factura de compra.
func PurchaseStatus(inv *entity.PurchaseInvoice) entity.DocumentStatus {
	ordered := make([]int, len(inv.Lines))
	done := make([]int, len(inv.Lines))
	for i, l := range inv.Lines {
		ordered[i], done[i] = l.Quantity, l.ReceivedQty
	}
	return DeriveStatus(inv.Status, ordered, done, entity.DocumentPartiallyReceived)
}

// SalesStatus estado derivado de un pedido de venta.
func SalesStatus(order *entity.SalesOrder) entity.DocumentStatus {
	ordered := make([]int, len(order.Lines))
	done := make([]int, len(order.Lines))
	for i, l := range order.Lines {
		ordered[i], done[i] = l.Quantity, l.DeliveredQty
	}
	return DeriveStatus(order.Status, ordered, done, entity.DocumentPartiallyShipped)
}
