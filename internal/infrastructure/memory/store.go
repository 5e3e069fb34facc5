// Package memory implementa el almacén transaccional en proceso: útil en tests y en modo demo sin PostgreSQL.
// Cada transacción trabaja sobre una copia del estado del scope y solo la publica si fn no falla.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

type state struct {
	products    map[string]*entity.Product
	locations   map[string]*entity.Location
	lookups     map[string]*entity.LookupItem
	items       map[string]*entity.InventoryItem
	batches     map[string]*entity.PendingBatch
	purchases   map[string]*entity.PurchaseInvoice
	sales       map[string]*entity.SalesOrder
	counters    map[string]*entity.SequenceCounter
	applied     map[string]*entity.AppliedAction
	stockLevels map[string]*entity.StockLevel
	events      []*entity.InventoryEvent
}

func newState() *state {
	return &state{
		products:    map[string]*entity.Product{},
		locations:   map[string]*entity.Location{},
		lookups:     map[string]*entity.LookupItem{},
		items:       map[string]*entity.InventoryItem{},
		batches:     map[string]*entity.PendingBatch{},
		purchases:   map[string]*entity.PurchaseInvoice{},
		sales:       map[string]*entity.SalesOrder{},
		counters:    map[string]*entity.SequenceCounter{},
		applied:     map[string]*entity.AppliedAction{},
		stockLevels: map[string]*entity.StockLevel{},
	}
}

// clone copia los mapas; los valores se reemplazan completos en cada escritura, así que compartir
// punteros con la versión anterior es seguro.
func (s *state) clone() *state {
	return &state{
		products:    cloneMap(s.products),
		locations:   cloneMap(s.locations),
		lookups:     cloneMap(s.lookups),
		items:       cloneMap(s.items),
		batches:     cloneMap(s.batches),
		purchases:   cloneMap(s.purchases),
		sales:       cloneMap(s.sales),
		counters:    cloneMap(s.counters),
		applied:     cloneMap(s.applied),
		stockLevels: cloneMap(s.stockLevels),
		events:      slices.Clone(s.events),
	}
}

func cloneMap[V any](m map[string]*V) map[string]*V {
	out := make(map[string]*V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store almacén en memoria con transacciones serializadas por un único mutex.
type Store struct {
	mu     sync.Mutex
	scopes map[string]*state
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{scopes: map[string]*state{}}
}

// Run ejecuta fn sobre una copia del scope y la publica solo si fn termina sin error.
func (s *Store) Run(ctx context.Context, scopeID string, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	base, ok := s.scopes[scopeID]
	if !ok {
		base = newState()
	}
	work := base.clone()
	if err := fn(work.tx()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.scopes[scopeID] = work
	return nil
}

func (s *state) tx() repository.Tx {
	return repository.Tx{
		Products:    productRepo{s},
		Locations:   locationRepo{s},
		Lookups:     lookupRepo{s},
		Items:       itemRepo{s},
		Batches:     batchRepo{s},
		Purchases:   purchaseRepo{s},
		Sales:       salesRepo{s},
		Counters:    counterRepo{s},
		Events:      eventRepo{s},
		Applied:     appliedRepo{s},
		StockLevels: stockLevelRepo{s},
	}
}
