package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/auth"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/inventory"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/sequence"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/syncer"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/usecase"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/infrastructure/drainlock"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/infrastructure/local"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/infrastructure/memory"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/infrastructure/postgres"
	httpRouter "github.com/worldelectronics558-art/inventory-plus-sub000/internal/interfaces/http"
	"github.com/worldelectronics558-art/inventory-plus-sub000/pkg/config"
	"github.com/worldelectronics558-art/inventory-plus-sub000/pkg/logger"
)

// swaggerFile documento servido en /docs cuando existe junto al binario.
const swaggerFile = "./docs/swagger.json"

// sidecar procesos y servidor armados a partir de la configuración. Nada de lo que hace
// newSidecar necesita red: la cola local se carga primero y el almacén compartido se conecta
// (y migra) cuando la sonda lo encuentra.
type sidecar struct {
	cfg    *config.Config
	log    *logger.Logger
	app    *fiber.App
	gate   *syncer.Gate
	engine *syncer.Engine
	queue  *local.DurableQueue
	probe  syncer.Prober // nil con el almacén en memoria

	closers []func()
}

func newSidecar(ctx context.Context, cfg *config.Config, log *logger.Logger) (*sidecar, error) {
	s := &sidecar{cfg: cfg, log: log}
	built := false
	defer func() {
		if !built {
			s.close()
		}
	}()

	// Estado local durable: disponible antes de cualquier conexión.
	handle, err := local.OpenAt(cfg.Local.Dir)
	if err != nil {
		return nil, fmt.Errorf("abrir almacenamiento local: %w", err)
	}
	s.closers = append(s.closers, func() { _ = handle.Close() })
	kv := local.NewKVStore(handle)
	s.queue, err = local.OpenQueue(ctx, kv)
	if err != nil {
		return nil, fmt.Errorf("cargar cola local: %w", err)
	}
	log.Info().Str("path", handle.Path).Int("pending", s.queue.Len()).
		Int("dead", s.queue.DeadLetterCount()).Msg("cola local cargada")

	// Almacén compartido
	var (
		runner repository.TxRunner
		users  repository.UserRepository
	)
	if cfg.Sync.UsesMemory() {
		runner = memory.NewStore()
		users = memory.NewUserRepository()
		log.Warn().Msg("almacén en memoria: los datos se pierden al cerrar")
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		runner = postgres.NewTxRunner(pool)
		users = postgres.NewUserRepository(pool)
		s.probe = postgres.NewProbe(pool)
	}

	authUC := auth.NewAuthUseCase(users, cfg.Sync.ScopeID, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	if cfg.Sync.UsesMemory() && cfg.Admin.Email != "" {
		_, err := authUC.RegisterUser(ctx, dto.RegisterRequest{
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
			Name:     cfg.Admin.Name,
			Role:     httpRouter.RoleAdmin,
		})
		if err != nil {
			return nil, fmt.Errorf("crear administrador en memoria: %w", err)
		}
	}

	// Arranca sin red confirmada; la sonda (o el modo memoria en run) la habilita.
	s.gate = syncer.NewGate(authUC, local.NewCredentialStore(kv, cfg.Local.Secret), log.Component("gate"))

	var lock syncer.DrainLock = syncer.NoopLock{}
	if cfg.Redis.Enabled() {
		rdb := drainlock.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		lock = drainlock.New(rdb, cfg.Sync.LockTTL)
	}

	inventorySvc := inventory.NewService(runner, log.Component("inventory"), nil)
	s.engine = syncer.NewEngine(syncer.Deps{
		ScopeID:       cfg.Sync.ScopeID,
		Dispatcher:    inventorySvc,
		Queue:         s.queue,
		Gate:          s.gate,
		Lock:          lock,
		Sequence:      sequence.NewGenerator(runner, nil),
		Logger:        log.Component("syncer"),
		Debounce:      cfg.Sync.Debounce,
		RetryInterval: cfg.Sync.RetryInterval,
	})

	s.app = fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	s.app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		s.app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Inventory Sync API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("sin documentación swagger")
	}

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "online": s.gate.IsOnline()})
	})

	httpRouter.Router(s.app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		Gate:       s.gate,
		Engine:     s.engine,
		Inventory:  inventorySvc,
		ProductUC:  usecase.NewProductUseCase(runner, s.gate, cfg.Sync.ScopeID),
		LocationUC: usecase.NewLocationUseCase(runner, s.gate, cfg.Sync.ScopeID),
		LookupUC:   usecase.NewLookupUseCase(runner, s.gate, cfg.Sync.ScopeID),
		DocumentUC: usecase.NewDocumentUseCase(runner, s.gate, cfg.Sync.ScopeID, nil),
		ScopeID:    cfg.Sync.ScopeID,
		JWTSecret:  cfg.JWT.Secret,
	})
	built = true
	return s, nil
}

// run atiende HTTP, vacía la cola y sondea el almacén hasta que ctx termine.
func (s *sidecar) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	// Al encontrar el almacén se retoma (o verifica) la sesión con las credenciales guardadas.
	s.gate.OnReachable(func(ok bool) {
		if !ok {
			return
		}
		err := s.gate.ResumeSession(gctx)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrAuth):
			s.log.Info().Err(err).Msg("sin sesión verificada, sigue offline")
		default:
			s.log.Warn().Err(err).Msg("no se pudo retomar la sesión")
		}
	})

	g.Go(func() error { return s.engine.Run(gctx) })
	if s.probe != nil {
		g.Go(func() error { return s.gate.Watch(gctx, s.probe, s.cfg.Sync.ProbeInterval) })
	} else {
		s.gate.SetReachable(true)
	}
	g.Go(func() error {
		s.log.Info().Str("addr", s.cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		return s.app.Listen(s.cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	})
	return g.Wait()
}

// close libera en orden inverso lo que newSidecar abrió.
func (s *sidecar) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
