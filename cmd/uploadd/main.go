package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sir_venger/upload_lite/internal/app/uploadhttp"
	"github.com/sir_venger/upload_lite/internal/chunkstore"
	"github.com/sir_venger/upload_lite/internal/config"
	"github.com/sir_venger/upload_lite/internal/logging"
	"github.com/sir_venger/upload_lite/internal/usecase/uploadsvc"
)

// main поднимает сервер загрузок и обеспечивает корректное завершение по сигналу.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("uploadd", "info", false)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logging.New("uploadd", cfg.LogLevel, cfg.LogPretty)

	store, err := chunkstore.New(cfg.ChunkDir, log)
	if err != nil {
		log.Fatal().Err(err).Str("chunk_dir", cfg.ChunkDir).Msg("open chunk store")
	}
	if err = os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("output_dir", cfg.OutputDir).Msg("create output dir")
	}

	svc := uploadsvc.New(uploadsvc.Deps{
		Store:     store,
		OutputDir: cfg.OutputDir,
		Log:       log,
	})

	handler := uploadhttp.New(uploadhttp.Options{
		Service:       svc,
		Stager:        store,
		StaticDir:     cfg.StaticDir,
		MaxChunkBytes: cfg.MaxChunkBytes,
		GCTTL:         cfg.GCTTL,
		Log:           log,
	})

	stopGC, err := uploadhttp.StartGC(svc, cfg.GCTTL, cfg.GCSchedule, log)
	if err != nil {
		log.Fatal().Err(err).Msg("start gc")
	}
	defer stopGC()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().
		Str("addr", cfg.ListenAddr).
		Str("chunk_dir", cfg.ChunkDir).
		Str("output_dir", cfg.OutputDir).
		Dur("gc_ttl", cfg.GCTTL).
		Str("gc_schedule", cfg.GCSchedule).
		Msg("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stopGC()
		log.Fatal().Err(err).Msg("listen")
	}
	<-ctx.Done()
	log.Info().Msg("stopped")
}
