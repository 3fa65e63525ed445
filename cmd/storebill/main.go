package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storebill/internal/config"
	"storebill/internal/http/handlers"
	applog "storebill/internal/log"
	"storebill/internal/metrics"
	"storebill/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	var extra []io.Writer
	var fileErr error
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fileErr = err
		} else {
			defer f.Close()
			extra = append(extra, f)
		}
	}
	applog.Init(cfg.LogLevel, cfg.Env, extra...)
	logger := applog.L()
	defer func() { _ = logger.Sync() }()
	if fileErr != nil {
		logger.Warn("log.file.open", zap.String("path", cfg.LogFile), zap.Error(fileErr))
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal("db.open", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()
	if err := repos.SeedAdmin(db, cfg.SeedAdminPass); err != nil {
		logger.Fatal("seed.admin", zap.Error(err))
	}

	m := metrics.New("storebill")
	deps := handlers.NewDeps(db, cfg, m)

	if err := deps.Reaper.Start(cfg.ReaperSchedule); err != nil {
		logger.Fatal("reaper.schedule", zap.String("schedule", cfg.ReaperSchedule), zap.Error(err))
	}
	defer deps.Reaper.Stop()

	app := handlers.NewApp(deps, handlers.AppOptions{
		TemplatesDir:   cfg.TemplatesDir,
		APIRequireAuth: cfg.APIRequireAuth,
		RateLimit:      cfg.RateLimit,
		AccessLog:      true,
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("server.shutdown")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(ctx)
	}()

	logger.Info("server.start", zap.String("port", cfg.Port), zap.String("driver", cfg.DBDriver))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server.listen", zap.Error(err))
	}
}
