package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrOfflineBlocked     = errors.New("operación no disponible sin conexión")
	ErrAuth               = errors.New("no se pudo autenticar")
	ErrSequenceGeneration = errors.New("no se pudo generar el consecutivo")
	ErrTransactionAbort   = errors.New("transacción abortada")
	ErrAlreadyFinalized   = errors.New("el documento ya está finalizado")
	ErrUnknownAction      = errors.New("tipo de acción desconocido")
)

// IsPermanent indica si reintentar el mismo error nunca podrá tener éxito.
// Los errores permanentes se mueven a la lista de acciones muertas; el resto detiene la cola y se reintenta.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrAlreadyFinalized),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, ErrDuplicate):
		return true
	}
	return false
}
