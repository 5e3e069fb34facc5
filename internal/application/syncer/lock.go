package syncer

import (
	"context"
	"errors"
)

// ErrLockNotObtained otro proceso tiene la concesión de vaciado del scope.
var ErrLockNotObtained = errors.New("concesión de vaciado ocupada")

// DrainLock concesión entre procesos para que un solo sidecar vacíe la cola de un scope.
type DrainLock interface {
	Obtain(ctx context.Context, scopeID string) (release func(context.Context) error, err error)
}

// NoopLock concesión local: siempre se obtiene.
type NoopLock struct{}

func (NoopLock) Obtain(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
