// cmd/importlotes/main.go: carga un .xlsx de lotes directo en la base.
// Uso: go run ./cmd/importlotes -archivo lotes.xlsx
// Columnas: ingrediente_id, cantidad, costo_unitario, vencimiento (opcional).
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"comandas/internal/config"
	"comandas/internal/infra"
	"comandas/internal/repository"
	"comandas/internal/service"
	"comandas/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	path := flag.String("archivo", "", "ruta del .xlsx a importar")
	flag.Parse()
	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal().Err(err).Str("archivo", *path).Msg("cannot open file")
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// No cache or queue here: the server's reconcile cron picks up the new lots.
	svc := service.NewLoteService(
		repository.NewLoteRepository(db),
		repository.NewMovimientoLoteRepository(db),
		repository.NewIngredienteRepository(db),
		worker.NewDispatcher(nil),
		nil,
	)
	resp, err := svc.ImportarXLSX(ctx, f)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
	log.Info().Int("importados", resp.Importados).Str("archivo", *path).Msg("lotes importados")
}
