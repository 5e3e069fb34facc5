// Package inventory aplica las acciones de stock encoladas contra el almacén compartido.
// Cada acción corre en una sola transacción: primero lecturas, luego cálculo en memoria, luego escrituras.
package inventory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

// Meta identifica la acción y al usuario que la originó.
type Meta struct {
	ActionID string
	Token    string // llave de idempotencia; vacío = sin guarda
	Type     entity.ActionType
	UserID   string
	UserName string
}

// MetaFrom arma Meta desde una acción encolada.
func MetaFrom(a entity.QueuedAction) Meta {
	return Meta{
		ActionID: a.ID,
		Token:    a.Token,
		Type:     a.Type,
		UserID:   a.Payload.UserID,
		UserName: a.Payload.User.DisplayName,
	}
}

// Service handlers transaccionales de conciliación de stock.
type Service struct {
	tx  repository.TxRunner
	log zerolog.Logger
	now func() time.Time
}

// NewService construye el servicio. now nil = time.Now.
func NewService(tx repository.TxRunner, log zerolog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{tx: tx, log: log, now: now}
}

// Apply despacha la acción a su handler. Hay un caso por variante de entity.Operation;
// una acción sin variante reconocida devuelve ErrUnknownAction.
func (s *Service) Apply(ctx context.Context, scopeID string, a entity.QueuedAction) error {
	meta := MetaFrom(a)
	switch op := a.Payload.Operation.(type) {
	case entity.StockIn:
		return s.StockIn(ctx, scopeID, meta, op)
	case entity.StockOut:
		return s.StockOut(ctx, scopeID, meta, op)
	case entity.Transfer:
		return s.Transfer(ctx, scopeID, meta, op)
	case entity.FinalizePurchase:
		return s.FinalizePurchase(ctx, scopeID, meta, op)
	case entity.FinalizeSale:
		return s.FinalizeSale(ctx, scopeID, meta, op)
	case nil:
		return fmt.Errorf("%w: %s", domain.ErrUnknownAction, a.Type)
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnknownAction, op)
	}
}

// run envuelve fn con la guarda de idempotencia: si el token ya fue aplicado la acción es un no-op,
// si no se registra en la misma transacción que sus efectos.
func (s *Service) run(ctx context.Context, scopeID string, meta Meta, fn func(tx repository.Tx, now time.Time) error) error {
	now := s.now()
	return s.tx.Run(ctx, scopeID, func(tx repository.Tx) error {
		if meta.Token != "" {
			done, err := tx.Applied.Exists(ctx, meta.Token)
			if err != nil {
				return fmt.Errorf("consultar idempotencia: %w", err)
			}
			if done {
				s.log.Info().Str("action_id", meta.ActionID).Str("token", meta.Token).
					Msg("acción ya aplicada, se omite")
				return nil
			}
		}
		if err := fn(tx, now); err != nil {
			return err
		}
		if meta.Token == "" {
			return nil
		}
		return tx.Applied.Create(ctx, &entity.AppliedAction{
			Token:     meta.Token,
			ActionID:  meta.ActionID,
			Type:      meta.Type,
			AppliedAt: now,
		})
	})
}

// lockProducts lee y bloquea los productos indicados. Un producto inexistente es ErrNotFound.
func lockProducts(ctx context.Context, tx repository.Tx, ids ...string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		p, err := tx.Products.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		out[id] = p
	}
	return out, nil
}

// saveSummaries escribe el resumen y costo de los productos tocados.
func saveSummaries(ctx context.Context, tx repository.Tx, products map[string]*entity.Product, touched map[string]bool) error {
	for id := range touched {
		p := products[id]
		if !p.Stock.Consistent() {
			return fmt.Errorf("%w: resumen inconsistente para %s", domain.ErrTransactionAbort, p.SKU)
		}
		if err := tx.Products.UpdateStock(ctx, id, p.Stock, p.Cost); err != nil {
			return err
		}
	}
	return nil
}

func insertEvents(ctx context.Context, tx repository.Tx, events []*entity.InventoryEvent) error {
	for _, e := range events {
		if err := tx.Events.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func newEvent(meta Meta, kind string, now time.Time) *entity.InventoryEvent {
	return &entity.InventoryEvent{
		ID:        uuid.NewString(),
		Type:      kind,
		ActionID:  meta.ActionID,
		UserID:    meta.UserID,
		UserName:  meta.UserName,
		CreatedAt: now,
	}
}

// internalSerial identificador para lotes no serializados: <sku>-<unixmillis>-<aleatorio>.
func internalSerial(sku string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%04d", sku, now.UnixMilli(), rand.IntN(10000))
}

// lotKey agrupa lotes por producto y ubicación.
type lotKey struct{ productID, locationID string }

// lotSet copia de trabajo de los lotes disponibles, cargada una vez por (producto, ubicación)
// para que varias líneas de la misma acción vean los descuentos de las anteriores.
type lotSet struct {
	tx      repository.Tx
	lots    map[lotKey][]*entity.InventoryItem
	changed map[string]*entity.InventoryItem
	created []*entity.InventoryItem
}

func newLotSet(tx repository.Tx) *lotSet {
	return &lotSet{
		tx:      tx,
		lots:    map[lotKey][]*entity.InventoryItem{},
		changed: map[string]*entity.InventoryItem{},
	}
}

func (l *lotSet) get(ctx context.Context, productID, locationID string) ([]*entity.InventoryItem, error) {
	k := lotKey{productID, locationID}
	if lots, ok := l.lots[k]; ok {
		return lots, nil
	}
	lots, err := l.tx.Items.ListAvailableForUpdate(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	l.lots[k] = lots
	return lots, nil
}

func (l *lotSet) add(ctx context.Context, item *entity.InventoryItem) error {
	lots, err := l.get(ctx, item.ProductID, item.LocationID)
	if err != nil {
		return err
	}
	l.lots[lotKey{item.ProductID, item.LocationID}] = append(lots, item)
	return nil
}

func (l *lotSet) remove(item *entity.InventoryItem, locationID string) {
	k := lotKey{item.ProductID, locationID}
	lots := l.lots[k]
	for i, it := range lots {
		if it == item {
			l.lots[k] = append(lots[:i:i], lots[i+1:]...)
			return
		}
	}
}

func (l *lotSet) markChanged(item *entity.InventoryItem) {
	if item.ID != "" {
		l.changed[item.ID] = item
	}
}

// flush escribe lotes nuevos y modificados.
func (l *lotSet) flush(ctx context.Context) error {
	createdIDs := make(map[string]bool, len(l.created))
	for _, it := range l.created {
		if err := l.tx.Items.Create(ctx, it); err != nil {
			return err
		}
		createdIDs[it.ID] = true
	}
	for id, it := range l.changed {
		if createdIDs[id] {
			continue
		}
		if err := l.tx.Items.Update(ctx, it); err != nil {
			return err
		}
	}
	return nil
}
