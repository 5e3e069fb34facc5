// Package syncer contiene la compuerta de conectividad y el procesador de la cola de acciones:
// toda operación de stock se encola localmente y se aplica en orden cuando hay conexión.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/inventory"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// DefaultDebounce espera tras un cambio de conectividad o un encolado antes de vaciar.
const DefaultDebounce = 1500 * time.Millisecond

// Dispatcher aplica una acción contra el almacén compartido.
type Dispatcher interface {
	Apply(ctx context.Context, scopeID string, a entity.QueuedAction) error
}

// Queue cola durable de acciones pendientes.
type Queue interface {
	Append(ctx context.Context, a entity.QueuedAction) error
	PeekHead() (entity.QueuedAction, bool)
	RemoveHead(ctx context.Context) error
	Len() int
	Snapshot() []entity.QueuedAction
	DeadLetter(ctx context.Context, a entity.QueuedAction, reason string) error
	DeadLetters() []entity.DeadLetter
	DeadLetterCount() int
	Requeue(ctx context.Context, id string) (entity.QueuedAction, error)
	Discard(ctx context.Context, id string) error
}

// OnlineGate vista de la compuerta que necesita el procesador.
type OnlineGate interface {
	IsOnline() bool
	OnChange(fn func(online bool))
}

// SequenceSource genera ids de lote en su propia transacción.
type SequenceSource interface {
	Generate(ctx context.Context, prefix, scopeID string) (string, error)
}

// Actor usuario que encola la acción.
type Actor struct {
	UserID      string
	DisplayName string
}

// Deps dependencias explícitas del procesador.
type Deps struct {
	ScopeID       string
	Dispatcher    Dispatcher
	Queue         Queue
	Gate          OnlineGate
	Lock          DrainLock // nil = NoopLock
	Validator     *validator.Validate
	Sequence      SequenceSource
	Logger        zerolog.Logger
	Debounce      time.Duration // 0 = DefaultDebounce
	RetryInterval time.Duration // 0 = sin reintento periódico
	Now           func() time.Time
}

// DrainReport resultado de un vaciado.
type DrainReport struct {
	Skipped      bool `json:"skipped"`
	Applied      int  `json:"applied"`
	DeadLettered int  `json:"deadLettered"`
	Remaining    int  `json:"remaining"`
	Halted       bool `json:"halted"`
}

// Status estado visible del procesador.
type Status struct {
	Online      bool       `json:"online"`
	Syncing     bool       `json:"syncing"`
	Pending     int        `json:"pending"`
	DeadLetters int        `json:"deadLetters"`
	LastError   string     `json:"lastError,omitempty"`
	LastDrainAt *time.Time `json:"lastDrainAt,omitempty"`
}

// Engine procesador de la cola. A lo sumo un vaciado en curso por proceso.
type Engine struct {
	d       Deps
	syncing atomic.Bool
	kick    chan struct{} // vaciado inmediato
	rearm   chan struct{} // reprograma el debounce

	mu          sync.Mutex
	lastErr     error
	lastDrainAt time.Time
}

// NewEngine construye el procesador y lo suscribe a los cambios de la compuerta.
func NewEngine(d Deps) *Engine {
	if d.Lock == nil {
		d.Lock = NoopLock{}
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Debounce <= 0 {
		d.Debounce = DefaultDebounce
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	e := &Engine{
		d:     d,
		kick:  make(chan struct{}, 1),
		rearm: make(chan struct{}, 1),
	}
	d.Gate.OnChange(func(bool) { signal(e.rearm) })
	return e
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// AddToQueue valida y encola una operación de stock. Es la única entrada que modifica stock.
// Online, el id de un lote pendiente se asigna aquí; offline lo asigna el handler al aplicarse.
func (e *Engine) AddToQueue(ctx context.Context, op entity.Operation, actor Actor) (entity.QueuedAction, error) {
	if op == nil {
		return entity.QueuedAction{}, fmt.Errorf("%w: operación vacía", domain.ErrInvalidInput)
	}
	if err := e.d.Validator.Struct(op); err != nil {
		return entity.QueuedAction{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	if err := inventory.Validate(op); err != nil {
		return entity.QueuedAction{}, err
	}

	online := e.d.Gate.IsOnline()
	if prefix, batchID, ok := entity.StagedBatch(op); ok && batchID == "" && online {
		id, err := e.d.Sequence.Generate(ctx, prefix, e.d.ScopeID)
		if err != nil {
			return entity.QueuedAction{}, err
		}
		op = entity.WithBatchID(op, id)
	}

	a := entity.QueuedAction{
		ID:    uuid.NewString(),
		Type:  op.Type(),
		Token: uuid.NewString(),
		Payload: entity.ActionPayload{
			Operation: op,
			UserID:    actor.UserID,
			User:      entity.UserProfile{DisplayName: actor.DisplayName},
		},
		EnqueuedAt: e.d.Now(),
	}
	if err := e.d.Queue.Append(ctx, a); err != nil {
		return entity.QueuedAction{}, fmt.Errorf("encolar: %w", err)
	}
	e.d.Logger.Info().Str("action_id", a.ID).Str("type", string(a.Type)).Bool("online", online).Msg("acción encolada")

	signal(e.rearm)
	if online {
		signal(e.kick)
	}
	return a, nil
}

// Drain aplica acciones en orden hasta vaciar la cola, quedar offline, cancelar ctx o detenerse
// en un error transitorio. Una llamada concurrente devuelve Skipped.
func (e *Engine) Drain(ctx context.Context) (DrainReport, error) {
	if !e.syncing.CompareAndSwap(false, true) {
		return DrainReport{Skipped: true}, nil
	}
	defer e.syncing.Store(false)

	release, err := e.d.Lock.Obtain(ctx, e.d.ScopeID)
	if errors.Is(err, ErrLockNotObtained) {
		e.d.Logger.Debug().Str("scope_id", e.d.ScopeID).Msg("otro proceso está vaciando la cola")
		return DrainReport{Skipped: true}, nil
	}
	if err != nil {
		return DrainReport{}, fmt.Errorf("obtener concesión: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			e.d.Logger.Warn().Err(err).Msg("no se pudo liberar la concesión")
		}
	}()

	var rep DrainReport
	for ctx.Err() == nil && e.d.Gate.IsOnline() {
		res, err := e.step(ctx)
		switch res {
		case stepEmpty:
			e.finish(nil)
			rep.Remaining = 0
			return rep, nil
		case stepApplied:
			rep.Applied++
		case stepDeadLettered:
			rep.DeadLettered++
		case stepHalted:
			rep.Halted = true
			e.finish(err)
			rep.Remaining = e.d.Queue.Len()
			return rep, err
		}
	}
	rep.Remaining = e.d.Queue.Len()
	return rep, nil
}

type stepResult int

const (
	stepEmpty stepResult = iota
	stepApplied
	stepDeadLettered
	stepHalted
)

// step aplica la cabeza. Éxito: se quita. Error permanente: pasa a acciones muertas y se sigue.
// Error transitorio: la cabeza se conserva y el vaciado se detiene.
func (e *Engine) step(ctx context.Context) (stepResult, error) {
	head, ok := e.d.Queue.PeekHead()
	if !ok {
		return stepEmpty, nil
	}
	log := e.d.Logger.With().Str("action_id", head.ID).Str("type", string(head.Type)).Logger()

	err := e.d.Dispatcher.Apply(ctx, e.d.ScopeID, head)
	if err == nil {
		if err := e.d.Queue.RemoveHead(ctx); err != nil {
			log.Error().Err(err).Msg("acción aplicada pero no se pudo quitar de la cola")
			return stepHalted, err
		}
		log.Info().Msg("acción aplicada")
		return stepApplied, nil
	}

	if domain.IsPermanent(err) {
		log.Warn().Err(err).Msg("acción descartada")
		if err := e.d.Queue.DeadLetter(ctx, head, err.Error()); err != nil {
			log.Error().Err(err).Msg("no se pudo mover a acciones muertas")
			return stepHalted, err
		}
		return stepDeadLettered, nil
	}

	err = fmt.Errorf("%w: acción %s (%s): %w", domain.ErrTransactionAbort, head.ID, head.Type, err)
	log.Error().Err(err).Msg("sincronización detenida")
	return stepHalted, err
}

func (e *Engine) finish(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = err
	e.lastDrainAt = e.d.Now()
}

// Run atiende los disparadores de vaciado hasta que ctx termine: encolado online (inmediato),
// debounce tras cambios de conectividad o encolados, y reintento periódico opcional.
func (e *Engine) Run(ctx context.Context) error {
	debounce := time.NewTimer(e.d.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	var retry <-chan time.Time
	if e.d.RetryInterval > 0 {
		t := time.NewTicker(e.d.RetryInterval)
		defer t.Stop()
		retry = t.C
	}

	signal(e.rearm)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.kick:
			e.tryDrain(ctx)
		case <-e.rearm:
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(e.d.Debounce)
		case <-debounce.C:
			e.tryDrain(ctx)
		case <-retry:
			e.tryDrain(ctx)
		}
	}
}

func (e *Engine) tryDrain(ctx context.Context) {
	if !e.d.Gate.IsOnline() || e.d.Queue.Len() == 0 || e.syncing.Load() {
		return
	}
	rep, err := e.Drain(ctx)
	if err != nil {
		e.d.Logger.Warn().Err(err).Int("remaining", rep.Remaining).Msg("vaciado detenido")
		return
	}
	if rep.Applied+rep.DeadLettered > 0 {
		e.d.Logger.Info().Int("applied", rep.Applied).Int("dead", rep.DeadLettered).
			Int("remaining", rep.Remaining).Msg("vaciado terminado")
	}
}

// Status estado actual para la interfaz.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Status{
		Online:      e.d.Gate.IsOnline(),
		Syncing:     e.syncing.Load(),
		Pending:     e.d.Queue.Len(),
		DeadLetters: e.d.Queue.DeadLetterCount(),
	}
	if e.lastErr != nil {
		s.LastError = e.lastErr.Error()
	}
	if !e.lastDrainAt.IsZero() {
		t := e.lastDrainAt
		s.LastDrainAt = &t
	}
	return s
}

// LastError error que detuvo el último vaciado; nil si terminó bien.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Pending acciones pendientes en orden.
func (e *Engine) Pending() []entity.QueuedAction {
	return e.d.Queue.Snapshot()
}

// DeadLetters acciones descartadas.
func (e *Engine) DeadLetters() []entity.DeadLetter {
	return e.d.Queue.DeadLetters()
}

// Requeue devuelve una acción muerta a la cola y programa un vaciado.
func (e *Engine) Requeue(ctx context.Context, id string) (entity.QueuedAction, error) {
	a, err := e.d.Queue.Requeue(ctx, id)
	if err != nil {
		return a, err
	}
	e.d.Logger.Info().Str("action_id", id).Msg("acción reencolada")
	signal(e.rearm)
	return a, nil
}

// Discard elimina una acción muerta.
func (e *Engine) Discard(ctx context.Context, id string) error {
	if err := e.d.Queue.Discard(ctx, id); err != nil {
		return err
	}
	e.d.Logger.Info().Str("action_id", id).Msg("acción muerta eliminada")
	return nil
}
