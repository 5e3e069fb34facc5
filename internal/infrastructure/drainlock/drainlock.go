// Package drainlock implementa la concesión de vaciado entre procesos sobre Redis.
package drainlock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/syncer"
)

var _ syncer.DrainLock = (*Locker)(nil)

// lease lo que Locker usa de *redislock.Lock.
type lease interface {
	Release(ctx context.Context) error
}

type obtainFunc func(ctx context.Context, key string, ttl time.Duration) (lease, error)

// Locker concesión por scope con TTL. Si el proceso muere la concesión expira sola.
type Locker struct {
	obtain obtainFunc
	ttl    time.Duration
}

// New construye el locker sobre un cliente Redis.
func New(rdb redis.UniversalClient, ttl time.Duration) *Locker {
	client := redislock.New(rdb)
	return &Locker{ttl: ttl, obtain: func(ctx context.Context, key string, ttl time.Duration) (lease, error) {
		lock, err := client.Obtain(ctx, key, ttl, nil)
		if err != nil {
			return nil, err
		}
		return lock, nil
	}}
}

// NewClient arma el cliente Redis sin conectarse; go-redis abre la conexión al primer comando,
// así que un Redis caído solo hace fallar los vaciados hasta que vuelva.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 3 * time.Second,
	})
}

// Key llave de la concesión de un scope.
func Key(scopeID string) string {
	return "syncd:drain:" + scopeID
}

func (l *Locker) Obtain(ctx context.Context, scopeID string) (func(context.Context) error, error) {
	lock, err := l.obtain(ctx, Key(scopeID), l.ttl)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, syncer.ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// la concesión expiró durante un vaciado largo
			return nil
		}
		return err
	}, nil
}
