// Package main - standalone quote API server
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"carecost/adapters/rulestore"
	"carecost/api"
	"carecost/core/engine"
	"carecost/internal/config"
	"carecost/internal/logging"
)

const version = "1.0.0"

func main() {
	addr := flag.String("addr", "", "listen address (default from config)")
	rulesDir := flag.String("rules", "", "directory holding per-unit rule files")
	cfgFile := flag.String("config", "", "config file path")
	flag.Parse()

	cfg := config.LoadDefault()
	if *cfgFile != "" {
		loaded, err := config.Load(*cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	config.Set(cfg)
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
	}
	defer logging.Sync()

	if *rulesDir != "" {
		cfg.Rules.Directory = *rulesDir
	}
	if *addr == "" {
		*addr = cfg.Server.Addr
	}

	store, err := rulestore.Open(cfg.Rules.Directory)
	if err != nil {
		logging.Fatal("open rule store", zap.Error(err))
	}
	if cfg.Rules.SeedMissing && cfg.Rules.DefaultUnit != "" {
		if err := store.EnsureDefault(cfg.Rules.DefaultUnit, cfg.Rules.DefaultUnit); err != nil {
			logging.Fatal("seed default rule file", zap.Error(err))
		}
	}
	server := api.NewServer(engine.New(store), store, version)

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	logging.Info("quote API listening",
		zap.String("addr", *addr),
		zap.Int("units", len(store.List())),
	)
	if err := httpServer.ListenAndServe(); err != nil {
		logging.Fatal("server stopped", zap.Error(err))
	}
}
