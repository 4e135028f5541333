// Command ludoserver runs the Ludo analysis API server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/internal/config"
	"github.com/SamraT-Hacking/Ludo-Baji-sub001/internal/logger"
	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/api"
	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/engine"
)

const version = "0.1.0"

func main() {
	defaults := api.DefaultConfig()

	// Command line flags
	host := flag.String("host", defaults.Host, "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", defaults.Port, "Port to listen on")
	tuningFile := flag.String("tuning", "", "Path to a JSON file of heuristic weights")
	cacheSize := flag.Int("cache", 0, "Best-move cache entries (0 = default, negative disables)")
	workers := flag.Int("workers", defaults.MaxWorkers, "Max concurrent analysis requests")
	wsRate := flag.Float64("ws-rate", defaults.WSRate, "WebSocket messages per second per connection")
	wsBurst := flag.Int("ws-burst", defaults.WSBurst, "WebSocket message burst")
	readTimeout := flag.Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("Ludo Analysis Server v%s\n", version)
		os.Exit(0)
	}

	log := logger.New(*logLevel)

	weights := engine.DefaultWeights()
	if *tuningFile != "" {
		tuning, err := config.LoadTuning(*tuningFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", *tuningFile).Msg("failed to load tuning")
		}
		weights = tuning.Weights
		log.Info().Str("file", *tuningFile).Msg("tuning loaded")
	}

	eng := engine.NewEngine(engine.EngineOptions{Weights: &weights, CacheSize: *cacheSize})

	cfg := api.ServerConfig{
		Host:         *host,
		Port:         *port,
		ReadTimeout:  *readTimeout,
		WriteTimeout: *writeTimeout,
		IdleTimeout:  60 * time.Second,
		MaxWorkers:   *workers,
		WSRate:       *wsRate,
		WSBurst:      *wsBurst,
	}

	server := api.NewServer(eng, cfg, version, log)

	if err := server.ListenAndServeWithGracefulShutdown(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
