package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"demand-dashboard/internal/cfg"
	"demand-dashboard/internal/common"
	"demand-dashboard/internal/dataset"
	"demand-dashboard/internal/metrics"
	"demand-dashboard/internal/ml"
	"demand-dashboard/internal/storage"
	"demand-dashboard/internal/web"
)

const artifactAgeInterval = 30 * time.Second

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	registry, err := ml.LoadRegistry(c.ArtifactsDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", c.ArtifactsDir).Msg("Failed to load model artifacts")
	}
	startArtifactAgeCollector(ctx, registry, mw)

	src, summary, closeStore := loadDataset(c)
	defer closeStore()
	mw.DatasetRows(src.Len())

	srv, err := web.New(web.Options{
		Addr:         c.Addr(),
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		PageSize:     c.PageSize,
		ReportName:   c.ReportName,
		Models:       registry,
		Dataset:      src,
		Summary:      summary,
		Recorder:     mw,
		Gatherer:     prometheus.DefaultGatherer,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create dashboard server")
	}
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start dashboard server")
	}

	waitForShutdown(ctx, cancel, srv, c.ShutdownTimeout)
}

// setupLogging applies the configured level and output format.
func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.LogFormat == common.LogFormatConsole {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// loadDataset imports the spreadsheet into the bolt store when DATA_PATH is set and
// falls back to an in-memory table otherwise. A spreadsheet that cannot be read
// leaves the viewer empty.
func loadDataset(c cfg.Settings) (dataset.Source, dataset.Summary, func()) {
	if c.DataPath != "" {
		if src, summary, store, ok := loadStored(c); ok {
			return src, summary, func() {
				if err := store.Close(); err != nil {
					log.Error().Err(err).Msg("Failed to close dataset store")
				}
			}
		}
	}

	t, err := dataset.Load(c.DatasetPath, c.DatasetSheet)
	if err != nil {
		log.Error().Err(err).Str("path", c.DatasetPath).Msg("Dataset is empty or failed to load")
		t = dataset.Table{}
	} else {
		log.Info().Str("path", c.DatasetPath).Int("rows", t.Len()).Msg("Dataset loaded")
	}
	return dataset.NewMemory(t), dataset.Summarize(t), func() {}
}

func loadStored(c cfg.Settings) (dataset.Source, dataset.Summary, *storage.Store, bool) {
	if err := os.MkdirAll(c.DataPath, 0o755); err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil, dataset.Summary{}, nil, false
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil, dataset.Summary{}, nil, false
	}

	meta, _, err := store.Sync(c.DatasetPath, c.DatasetSheet)
	if err != nil {
		log.Warn().Err(err).Str("path", c.DatasetPath).Msg("Dataset import failed")
		store.Close()
		return nil, dataset.Summary{}, nil, false
	}

	src, err := store.Source()
	if err != nil {
		log.Warn().Err(err).Msg("Stored dataset unreadable")
		store.Close()
		return nil, dataset.Summary{}, nil, false
	}
	return src, meta.Summary, store, true
}

// startArtifactAgeCollector refreshes the artifact age gauges until ctx is done.
func startArtifactAgeCollector(ctx context.Context, registry *ml.Registry, mw metrics.Recorder) {
	record := func() {
		now := time.Now()
		for _, a := range registry.Artifacts() {
			mw.ArtifactAge(a.File, a.Age(now))
		}
	}
	record()

	go func() {
		ticker := time.NewTicker(artifactAgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				record()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// waitForShutdown waits for a shutdown signal and drains the server.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, srv *web.Server, timeout time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), timeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
	}
}
