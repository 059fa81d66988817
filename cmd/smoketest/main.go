package main

import (
	"context"
	"os"

	"gopherauth/internal/bootstrap"
	"gopherauth/internal/config"
	"gopherauth/internal/platform/logger"
	"gopherauth/internal/repository"
	"gopherauth/internal/smoke"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithError(err).Fatal("load config failed")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := bootstrap.OpenDatabase(context.Background(), cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open database failed")
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := repository.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrate failed")
	}

	report := smoke.Run(db, os.Stdout)
	if !report.OK() {
		log.WithField("failed", len(report.Results)-report.Passed()).Error("smoke checks failed")
		os.Exit(1)
	}
}
