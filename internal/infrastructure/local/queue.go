package local

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// Claves persistidas.
const (
	KeyPendingWrites = "pending_writes"
	KeyDeadLetters   = "dead_letters"
)

// DurableQueue cola FIFO de acciones pendientes que sobrevive reinicios.
// Cada mutación persiste primero la lista nueva y solo después reemplaza la copia en memoria:
// si la escritura falla, memoria y disco quedan como estaban.
type DurableQueue struct {
	mu      sync.Mutex
	kv      KeyValueStore
	pending []entity.QueuedAction
	dead    []entity.DeadLetter
	now     func() time.Time
}

// OpenQueue carga la cola persistida. Una clave ausente es una cola vacía.
func OpenQueue(ctx context.Context, kv KeyValueStore) (*DurableQueue, error) {
	q := &DurableQueue{kv: kv, now: time.Now}
	if err := load(ctx, kv, KeyPendingWrites, &q.pending); err != nil {
		return nil, err
	}
	if err := load(ctx, kv, KeyDeadLetters, &q.dead); err != nil {
		return nil, err
	}
	return q, nil
}

func load(ctx context.Context, kv KeyValueStore, key string, dst any) error {
	raw, ok, err := kv.GetItem(ctx, key)
	if err != nil {
		return err
	}
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decodificar %s: %w", key, err)
	}
	return nil
}

func encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codificar cola: %w", err)
	}
	return b, nil
}

// Append agrega la acción al final.
func (q *DurableQueue) Append(ctx context.Context, a entity.QueuedAction) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	next := append(slices.Clone(q.pending), a)
	if err := q.persistPending(ctx, next); err != nil {
		return err
	}
	q.pending = next
	return nil
}

// PeekHead devuelve la acción más antigua sin quitarla.
func (q *DurableQueue) PeekHead() (entity.QueuedAction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return entity.QueuedAction{}, false
	}
	return q.pending[0], true
}

// RemoveHead quita la acción más antigua.
func (q *DurableQueue) RemoveHead(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	next := slices.Clone(q.pending[1:])
	if err := q.persistPending(ctx, next); err != nil {
		return err
	}
	q.pending = next
	return nil
}

// Len cantidad de acciones pendientes.
func (q *DurableQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Snapshot copia de las acciones pendientes en orden.
func (q *DurableQueue) Snapshot() []entity.QueuedAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.pending)
}

// DeadLetter quita la cabeza (que debe ser a) y la mueve a la lista de acciones muertas,
// en una sola escritura.
func (q *DurableQueue) DeadLetter(ctx context.Context, a entity.QueuedAction, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 || q.pending[0].ID != a.ID {
		return fmt.Errorf("%w: %s no es la cabeza de la cola", domain.ErrNotFound, a.ID)
	}
	pending := slices.Clone(q.pending[1:])
	dead := append(slices.Clone(q.dead), entity.DeadLetter{Action: a, Reason: reason, FailedAt: q.now()})
	if err := q.persistBoth(ctx, pending, dead); err != nil {
		return err
	}
	q.pending, q.dead = pending, dead
	return nil
}

// DeadLetters copia de las acciones muertas.
func (q *DurableQueue) DeadLetters() []entity.DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.dead)
}

// DeadLetterCount cantidad de acciones muertas.
func (q *DurableQueue) DeadLetterCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.dead)
}

// Requeue devuelve una acción muerta al final de la cola, con su mismo token.
func (q *DurableQueue) Requeue(ctx context.Context, id string) (entity.QueuedAction, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := q.deadIndex(id)
	if idx < 0 {
		return entity.QueuedAction{}, fmt.Errorf("%w: acción muerta %s", domain.ErrNotFound, id)
	}
	a := q.dead[idx].Action
	pending := append(slices.Clone(q.pending), a)
	dead := slices.Delete(slices.Clone(q.dead), idx, idx+1)
	if err := q.persistBoth(ctx, pending, dead); err != nil {
		return entity.QueuedAction{}, err
	}
	q.pending, q.dead = pending, dead
	return a, nil
}

// Discard elimina definitivamente una acción muerta.
func (q *DurableQueue) Discard(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := q.deadIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: acción muerta %s", domain.ErrNotFound, id)
	}
	dead := slices.Delete(slices.Clone(q.dead), idx, idx+1)
	b, err := encode(dead)
	if err != nil {
		return err
	}
	if err := q.kv.SetItem(ctx, KeyDeadLetters, b); err != nil {
		return err
	}
	q.dead = dead
	return nil
}

func (q *DurableQueue) deadIndex(id string) int {
	return slices.IndexFunc(q.dead, func(d entity.DeadLetter) bool { return d.Action.ID == id })
}

func (q *DurableQueue) persistPending(ctx context.Context, pending []entity.QueuedAction) error {
	b, err := encode(pending)
	if err != nil {
		return err
	}
	return q.kv.SetItem(ctx, KeyPendingWrites, b)
}

func (q *DurableQueue) persistBoth(ctx context.Context, pending []entity.QueuedAction, dead []entity.DeadLetter) error {
	pb, err := encode(pending)
	if err != nil {
		return err
	}
	db, err := encode(dead)
	if err != nil {
		return err
	}
	return q.kv.SetItems(ctx, map[string][]byte{KeyPendingWrites: pb, KeyDeadLetters: db})
}
