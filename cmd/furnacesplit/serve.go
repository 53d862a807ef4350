package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"furnacesplit.ai/internal/logging"
	"furnacesplit.ai/internal/metrics"
	persistlog "furnacesplit.ai/internal/persistence/log"
	"furnacesplit.ai/internal/persistence/optionsdb"
	"furnacesplit.ai/internal/persistence/snapshot"
	"furnacesplit.ai/internal/sim/catalogs"
	"furnacesplit.ai/internal/sim/tuning"
	"furnacesplit.ai/internal/sim/world"
)

var (
	serveAddr    string
	tuningPath   string
	disableAudit bool
	loadLatest   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the oven world and the actor websocket endpoint",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "http listen address")
	serveCmd.Flags().StringVar(&tuningPath, "tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	serveCmd.Flags().BoolVar(&disableAudit, "disable_audit", false, "do not write split audit logs")
	serveCmd.Flags().BoolVar(&loadLatest, "load_latest_snapshot", true, "resume from the newest snapshot in <data>/snapshots")
	rootCmd.AddCommand(serveCmd)
}

func loadTuning() (tuning.Tuning, error) {
	p := tuningPath
	if p == "" {
		p = filepath.Join(configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(p)
	if err != nil && os.IsNotExist(err) {
		return tuning.Defaults(), nil
	}
	return tune, err
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.Setup(environment)

	cats, err := catalogs.Load(configDir)
	if err != nil {
		return fmt.Errorf("load catalogs: %w", err)
	}
	tune, err := loadTuning()
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}

	store, err := optionsdb.Open(filepath.Join(dataDir, "options.sqlite"))
	if err != nil {
		return fmt.Errorf("open options store: %w", err)
	}
	defer store.Close()

	deps := world.Deps{Store: store, Logger: logger}
	if !disableAudit {
		auditLog := persistlog.NewAuditLoggerWithOptions(dataDir, persistlog.WriterOptions{
			OnClose: func(path string) { logger.Info().Str("file", path).Msg("audit file closed") },
		})
		defer auditLog.Close()
		deps.Audit = auditLog
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = metrics.NewPrometheus(reg, "")

	w, err := world.New(tune, cats, deps)
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}
	snapDir := filepath.Join(dataDir, "snapshots")
	if path := snapshot.Latest(snapDir); loadLatest && path != "" {
		snap, err := snapshot.ReadSnapshot(path)
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		if err := w.ImportSnapshot(snap); err != nil {
			return fmt.Errorf("import snapshot: %w", err)
		}
		logger.Info().Str("snapshot", filepath.Base(path)).Uint64("tick", w.CurrentTick()).Msg("resumed from snapshot")
	}
	writeSnapshot := func(snap snapshot.SnapshotV1) {
		path := filepath.Join(snapDir, snapshot.FileName(snap.Header.Tick))
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			logger.Error().Err(err).Msg("snapshot write")
			return
		}
		logger.Debug().Str("snapshot", path).Msg("snapshot written")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	snapDone := make(chan struct{})
	go func() {
		defer close(snapDone)
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				writeSnapshot(snap)
			}
		}
	}()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("world stopped")
		}
	}()

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           newRouter(w, reg, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logger.Info().Str("addr", serveAddr).Int("tick_rate_hz", tune.TickRateHz).Msg("listening")
	listenErr := srv.ListenAndServe()
	if errors.Is(listenErr, http.ErrServerClosed) {
		listenErr = nil
	}
	stop()
	<-worldDone
	<-snapDone
	// The loop has exited, so the final snapshot can be taken here.
	writeSnapshot(w.ExportSnapshot())

	if listenErr != nil {
		return fmt.Errorf("listen: %w", listenErr)
	}
	logger.Info().Msg("stopped")
	return nil
}
