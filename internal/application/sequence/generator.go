// Package sequence genera consecutivos legibles "<PREFIX>-<YYMM>-<NNN>" que se reinician cada mes.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
)

// Prefijos conocidos.
const (
	PrefixReceivable  = "BI"
	PrefixDeliverable = "BO"
	PrefixPurchase    = "PI"
	PrefixSalesOrder  = "SO"
)

// Generator reserva consecutivos en su propia transacción.
type Generator struct {
	tx  repository.TxRunner
	now func() time.Time
}

// NewGenerator construye el generador. now permite fijar el reloj en tests (nil = time.Now).
func NewGenerator(tx repository.TxRunner, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{tx: tx, now: now}
}

// Generate reserva el siguiente consecutivo del mes para prefix dentro del scope.
// Cualquier falla (incluido el commit) se devuelve como ErrSequenceGeneration.
func (g *Generator) Generate(ctx context.Context, prefix, scopeID string) (string, error) {
	var id string
	err := g.tx.Run(ctx, scopeID, func(tx repository.Tx) error {
		next, err := Next(ctx, tx.Counters, prefix, g.now())
		if err != nil {
			return err
		}
		id = next
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSequenceGeneration) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %w", domain.ErrSequenceGeneration, prefix, err)
	}
	return id, nil
}

// Next lee, incrementa y escribe el contador "<prefix>_<YYMM>" dentro de la transacción del llamador.
func Next(ctx context.Context, counters repository.SequenceCounterRepository, prefix string, now time.Time) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: prefijo vacío", domain.ErrSequenceGeneration)
	}
	period := Period(now)
	key := prefix + "_" + period

	counter, err := counters.GetForUpdate(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: leer contador %s: %w", domain.ErrSequenceGeneration, key, err)
	}
	if counter == nil {
		counter = &entity.SequenceCounter{ID: key}
	}
	counter.Count++
	counter.UpdatedAt = now
	if err := counters.Upsert(ctx, counter); err != nil {
		return "", fmt.Errorf("%w: escribir contador %s: %w", domain.ErrSequenceGeneration, key, err)
	}
	return Format(prefix, period, counter.Count), nil
}

// Period devuelve el mes calendario en formato YYMM.
func Period(t time.Time) string {
	return t.Format("0601")
}

// Format arma el id; el número usa al menos 3 dígitos.
func Format(prefix, period string, n int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, period, n)
}
