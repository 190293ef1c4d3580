package main

import (
	"flag"
	"fmt"
	"os"

	"FinTrack/internal/di"
	"FinTrack/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	checkOnly := flag.Bool("check", false, "validate configuration and exit")
	flag.Parse()

	if err := run(*configPath, *checkOnly); err != nil {
		fmt.Fprintf(os.Stderr, "fintrack: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, checkOnly bool) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if checkOnly {
		fmt.Printf("config ok: env=%s provider=%s cache=%s basket=%d assets\n",
			cfg.Environment, cfg.Market.Provider, cfg.Cache.Backend, len(cfg.Market.Basket))
		return nil
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	// Blocks until SIGINT or SIGTERM.
	return app.Run()
}
