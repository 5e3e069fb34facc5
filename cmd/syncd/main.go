// syncd es el proceso local que acompaña a la aplicación de escritorio: mantiene la cola de
// acciones de stock, decide si hay conexión y aplica la cola contra el almacén compartido.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/worldelectronics558-art/inventory-plus-sub000/pkg/config"
	"github.com/worldelectronics558-art/inventory-plus-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
	if err != nil {
		panic("iniciar logger: " + err.Error())
	}
	defer log.Close()
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("scope_id", cfg.Sync.ScopeID).
		Str("store", cfg.Sync.Store).
		Msg("iniciando sidecar")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSidecar(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("armar sidecar")
	}
	defer s.close()

	if err := s.run(ctx); err != nil {
		log.Error().Err(err).Msg("sidecar finalizado con error")
	}
	log.Info().Int("pending", s.queue.Len()).Msg("sidecar detenido")
}
