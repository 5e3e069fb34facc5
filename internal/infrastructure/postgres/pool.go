package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worldelectronics558-art/inventory-plus-sub000/pkg/config"
)

// ConnectTimeout tope de cada intento de conexión; mantiene corta la sonda de alcanzabilidad.
const ConnectTimeout = 5 * time.Second

// NewPool arma el pool del almacén compartido sin conectarse: pgxpool abre conexiones al primer
// uso, así que el sidecar arranca aunque no haya red. Con DATABASE_URL se usa tal cual; si no,
// el DSN se arma desde DB_HOST, DB_PORT y demás.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	poolConfig.ConnConfig.ConnectTimeout = ConnectTimeout
	poolConfig.MaxConns = 4
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// Registrar codec para NUMERIC/DECIMAL -> shopspring/decimal (todas las conexiones del pool).
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	return pool, nil
}

// Probe sonda de alcanzabilidad del almacén. El primer Ping exitoso aplica las migraciones; hasta
// que terminen bien el almacén se reporta como no alcanzable.
type Probe struct {
	pool *pgxpool.Pool

	mu       sync.Mutex
	migrated bool
}

// NewProbe construye la sonda sobre el pool.
func NewProbe(pool *pgxpool.Pool) *Probe {
	return &Probe{pool: pool}
}

func (p *Probe) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.migrated {
		return nil
	}
	if err := Migrate(ctx, p.pool); err != nil {
		return fmt.Errorf("migraciones: %w", err)
	}
	p.migrated = true
	return nil
}

// Migrated indica si las migraciones ya se aplicaron en este proceso.
func (p *Probe) Migrated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.migrated
}
