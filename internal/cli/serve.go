package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	api "github.com/mind-engage/mindengage-interview/internal/api/http"
	authmw "github.com/mind-engage/mindengage-interview/internal/auth/middleware"
	"github.com/mind-engage/mindengage-interview/internal/bootstrap"
	"github.com/mind-engage/mindengage-interview/internal/config"
	"github.com/mind-engage/mindengage-interview/internal/engine"
	"github.com/mind-engage/mindengage-interview/internal/generate"
	"github.com/mind-engage/mindengage-interview/internal/logging"
	"github.com/mind-engage/mindengage-interview/internal/profile"
	"github.com/mind-engage/mindengage-interview/internal/result"
	"github.com/mind-engage/mindengage-interview/internal/scoring"
	"github.com/mind-engage/mindengage-interview/internal/snapshot"
	"github.com/mind-engage/mindengage-interview/internal/submission"
	syncx "github.com/mind-engage/mindengage-interview/internal/sync"
	"github.com/mind-engage/mindengage-interview/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := openDB(openCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer dbh.Close()

	rec, err := telemetry.New(ctx, telemetry.LoadConfig())
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rec.Close(shutdownCtx)
	}()

	kv, err := snapshotKV(cfg, dbh)
	if err != nil {
		return err
	}
	gen, err := generator(cfg)
	if err != nil {
		return err
	}

	events := syncx.NewEventRepo(dbh, "")
	profiles := profile.NewSQLStore(dbh)
	results := result.NewSQLStore(dbh)
	snaps := snapshot.NewStore(kv)

	boot := bootstrap.New(profiles, gen, results, snaps, events)
	sub := submission.New(scorer(cfg), results, snaps, events)
	eng := engine.New(boot, snaps, sub, engine.Options{
		Recorder: rec,
		Events:   events,
		IdleTTL:  cfg.PageIdleTTL,
	})
	defer eng.Shutdown()
	go eng.Run(ctx, time.Minute)

	deps := api.Deps{
		DB:                 dbh,
		Auth:               authmw.NewAuthService(cfg.AuthHMACSecret),
		Sessions:           eng,
		Profiles:           profiles,
		Results:            results,
		CORSOrigins:        cfg.CORSOrigins,
		AllowClaimFallback: cfg.Mode == config.ModeOffline,
	}
	if cfg.EnableLocalAuth {
		deps.Users = authmw.NewUsers(dbh)
	}
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.NewRouter(deps)}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logging.Logger.WithFields(map[string]any{
		"addr":     cfg.HTTPAddr,
		"mode":     cfg.Mode,
		"db":       cfg.DBDriver,
		"snapshot": cfg.SnapshotDriver,
	}).Info("listening")

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logging.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func snapshotKV(cfg config.Config, dbh *sql.DB) (snapshot.KV, error) {
	switch cfg.SnapshotDriver {
	case "sql", "":
		return snapshot.NewSQLKV(dbh), nil
	case "fs":
		kv, err := snapshot.NewFSKV(cfg.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("snapshot store: %w", err)
		}
		return kv, nil
	case "memory":
		return snapshot.NewMemoryKV(), nil
	}
	return nil, fmt.Errorf("unsupported snapshot driver: %s", cfg.SnapshotDriver)
}

func generator(cfg config.Config) (bootstrap.Generator, error) {
	if cfg.GeneratorURL != "" {
		return generate.NewHTTP(cfg.GeneratorURL, 30*time.Second), nil
	}
	tf, err := generate.LoadTemplate(cfg.TemplatePath)
	if err != nil {
		return nil, err
	}
	return generate.NewTemplate(tf), nil
}

func scorer(cfg config.Config) submission.Scorer {
	if cfg.ScoringURL == "" {
		logging.Logger.Warn("SCORING_URL not set; results are local completion summaries")
		return scoring.Local{}
	}
	return scoring.NewHTTP(scoring.Config{
		URL:          cfg.ScoringURL,
		TokenURL:     cfg.ScoringTokenURL,
		ClientID:     cfg.ScoringClientID,
		ClientSecret: cfg.ScoringClientSecret,
		Timeout:      cfg.ScoringTimeout,
	})
}
