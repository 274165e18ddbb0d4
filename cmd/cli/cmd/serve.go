// Package cmd - serve command
package cmd

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"carecost/adapters/rulestore"
	"carecost/api"
	"carecost/core/engine"
	"carecost/internal/config"
	"carecost/internal/logging"
)

var serveAddr string

// serveCmd starts the quote API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the quote API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}

		store, err := rulestore.Open(cfg.Rules.Directory)
		if err != nil {
			return err
		}
		if cfg.Rules.SeedMissing && cfg.Rules.DefaultUnit != "" {
			if err := store.EnsureDefault(cfg.Rules.DefaultUnit, cfg.Rules.DefaultUnit); err != nil {
				return err
			}
		}
		server := api.NewServer(engine.New(store), store, Version)

		httpServer := &http.Server{
			Addr:         addr,
			Handler:      server.Handler(),
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		}

		logging.Info("quote API listening",
			zap.String("addr", addr),
			zap.Int("units", len(store.List())),
		)
		return httpServer.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
