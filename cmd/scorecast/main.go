package main

import (
	"time"

	"github.com/scorecast/scorecast/internal/config"
	"github.com/scorecast/scorecast/internal/logger"
	"github.com/scorecast/scorecast/internal/metrics"
	"github.com/scorecast/scorecast/internal/server"
	"github.com/scorecast/scorecast/pkg/engine"
	"github.com/scorecast/scorecast/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	logger.SetLevel(cfg.LogLevel)

	engCfg := engine.DefaultConfig()
	engCfg.MonteCarloIterations = cfg.MonteCarloIterations
	engCfg.SeasonMaxTrials = cfg.SeasonTrials
	engCfg.Workers = cfg.Workers
	if err := engine.Validate(engCfg); err != nil {
		logger.Fatal("Invalid engine configuration", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("Failed to open store", err)
	}
	defer st.Close()

	m := metrics.NewManager()
	srv := server.New(cfg, engCfg, st, m, seed)

	logger.Info("Starting scorecast", "seed", seed)
	if err := srv.Serve(); err != nil {
		logger.Fatal("HTTP server failed", err)
	}
}
