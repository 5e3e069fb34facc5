// seed carga el catálogo de productos y las ubicaciones desde exportaciones CSV del sistema
// anterior (Windows-1252, separador ';') y crea el usuario administrador inicial.
//
// Uso: go run ./cmd/seed -products productos.csv [-locations ubicaciones.csv]
//
// Columnas de productos: sku;nombre;precio;serializado;descripcion
// Columnas de ubicaciones: id;nombre;direccion
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/auth"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/usecase"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/infrastructure/postgres"
	"github.com/worldelectronics558-art/inventory-plus-sub000/pkg/config"
	"github.com/worldelectronics558-art/inventory-plus-sub000/pkg/logger"
)

// alwaysOnline el seed escribe directo en PostgreSQL, sin compuerta de conectividad.
type alwaysOnline struct{}

func (alwaysOnline) Guard() error { return nil }

func main() {
	productsPath := flag.String("products", "", "CSV de productos")
	locationsPath := flag.String("locations", "", "CSV de ubicaciones")
	sep := flag.String("sep", ";", "separador de columnas")
	flag.Parse()
	if *productsPath == "" && *locationsPath == "" {
		fmt.Fprintln(os.Stderr, "uso: seed -products productos.csv [-locations ubicaciones.csv]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Iniciar logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	runner := postgres.NewTxRunner(pool)
	comma := []rune(*sep)[0]

	if cfg.Admin.Email != "" {
		authUC := auth.NewAuthUseCase(postgres.NewUserRepository(pool), cfg.Sync.ScopeID, auth.JWTConfig{Secret: cfg.JWT.Secret})
		_, err := authUC.RegisterUser(ctx, dto.RegisterRequest{
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
			Name:     cfg.Admin.Name,
			Role:     "admin",
		})
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			log.Info().Str("email", cfg.Admin.Email).Msg("administrador ya existe")
		case err != nil:
			log.Fatal().Err(err).Msg("crear administrador")
		default:
			log.Info().Str("email", cfg.Admin.Email).Msg("administrador creado")
		}
	}

	if *locationsPath != "" {
		locations, err := readFile(*locationsPath, comma, readLocations)
		if err != nil {
			log.Fatal().Err(err).Msg("leer ubicaciones")
		}
		uc := usecase.NewLocationUseCase(runner, alwaysOnline{}, cfg.Sync.ScopeID)
		created, skipped := 0, 0
		for _, in := range locations {
			if _, err := uc.Create(ctx, in); err != nil {
				if errors.Is(err, domain.ErrDuplicate) {
					skipped++
					continue
				}
				log.Fatal().Err(err).Str("id", in.ID).Msg("crear ubicación")
			}
			created++
		}
		log.Info().Int("created", created).Int("skipped", skipped).Msg("ubicaciones cargadas")
	}

	if *productsPath != "" {
		products, err := readFile(*productsPath, comma, readCatalog)
		if err != nil {
			log.Fatal().Err(err).Msg("leer productos")
		}
		uc := usecase.NewProductUseCase(runner, alwaysOnline{}, cfg.Sync.ScopeID)
		created, skipped := 0, 0
		for _, in := range products {
			if _, err := uc.Create(ctx, in); err != nil {
				if errors.Is(err, domain.ErrDuplicate) {
					skipped++
					continue
				}
				log.Fatal().Err(err).Str("sku", in.SKU).Msg("crear producto")
			}
			created++
		}
		log.Info().Int("created", created).Int("skipped", skipped).Msg("productos cargados")
	}
}

func readFile[T any](path string, comma rune, read func(io.Reader, rune) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return read(f, comma)
}

// newReader decodifica Windows-1252 y omite la fila de encabezado.
func newReader(r io.Reader, comma rune) (*csv.Reader, error) {
	cr := csv.NewReader(transform.NewReader(r, charmap.Windows1252.NewDecoder()))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("encabezado: %w", err)
	}
	return cr, nil
}

// readCatalog convierte las filas en solicitudes de alta de producto.
func readCatalog(r io.Reader, comma rune) ([]dto.CreateProductRequest, error) {
	cr, err := newReader(r, comma)
	if err != nil {
		return nil, err
	}
	var out []dto.CreateProductRequest
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if len(rec) < 2 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		in := dto.CreateProductRequest{
			SKU:  strings.TrimSpace(rec[0]),
			Name: strings.TrimSpace(rec[1]),
		}
		if len(rec) > 2 && strings.TrimSpace(rec[2]) != "" {
			price, err := parsePrice(rec[2])
			if err != nil {
				return nil, fmt.Errorf("línea %d: precio %q: %w", line, rec[2], err)
			}
			in.Price = price
		}
		if len(rec) > 3 {
			in.IsSerialized = parseBool(rec[3])
		}
		if len(rec) > 4 {
			in.Description = strings.TrimSpace(rec[4])
		}
		out = append(out, in)
	}
}

// readLocations convierte las filas en solicitudes de alta de ubicación.
func readLocations(r io.Reader, comma rune) ([]dto.CreateLocationRequest, error) {
	cr, err := newReader(r, comma)
	if err != nil {
		return nil, err
	}
	var out []dto.CreateLocationRequest
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if len(rec) < 2 || strings.TrimSpace(rec[1]) == "" {
			continue
		}
		in := dto.CreateLocationRequest{ID: strings.TrimSpace(rec[0]), Name: strings.TrimSpace(rec[1])}
		if len(rec) > 2 {
			in.Address = strings.TrimSpace(rec[2])
		}
		out = append(out, in)
	}
}

// parsePrice acepta "1234.50", "1234,50" y "1.234,50".
func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "si", "sí", "s", "x":
		return true
	}
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}
