package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"pattern-scanner/config"
	"pattern-scanner/internal/api"
	"pattern-scanner/internal/events"
	"pattern-scanner/internal/logging"
	"pattern-scanner/internal/marketdata"
	"pattern-scanner/internal/patterns"
	"pattern-scanner/internal/scanner"
	"pattern-scanner/internal/universe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(logging.Config{Level: "info"})
		log := logging.Component("main")
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Setup(logging.Config{
		Level:  cfg.LoggingConfig.Level,
		Pretty: cfg.LoggingConfig.Pretty,
	})
	log := logging.Component("main")
	log.Info().Msg("starting pattern scanner")

	client := marketdata.NewClient(cfg.MarketstackConfig.APIKey, cfg.MarketstackConfig.BaseURL,
		marketdata.WithCacheTTL(cfg.MarketstackConfig.CacheTTLDuration()),
		marketdata.WithCallSpacing(cfg.MarketstackConfig.CallSpacingDuration()),
	)

	eventBus := events.NewEventBus()
	detector := patterns.NewDetector()
	uni := universe.Load(universe.Config{
		File: cfg.UniverseConfig.File,
		URL:  cfg.UniverseConfig.URL,
	})

	sc := scanner.NewScanner(client, detector, eventBus, scanner.Config{
		WorkerCount:  cfg.ScannerConfig.WorkerCount,
		StreamBuffer: cfg.ScannerConfig.StreamBuffer,
	})

	server := api.NewServer(api.ServerConfig{
		Host:            cfg.ServerConfig.Host,
		Port:            cfg.ServerConfig.Port,
		AllowedOrigins:  cfg.ServerConfig.AllowedOrigins,
		ReadTimeout:     time.Duration(cfg.ServerConfig.ReadTimeout) * time.Second,
		WriteTimeout:    time.Duration(cfg.ServerConfig.WriteTimeout) * time.Second,
		ShutdownTimeout: time.Duration(cfg.ServerConfig.ShutdownTimeout) * time.Second,
		ProductionMode:  os.Getenv("GIN_MODE") == "release",
	}, sc, client, uni, eventBus)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		if err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
		return
	}

	if err := server.Shutdown(); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("shutdown complete")
}
