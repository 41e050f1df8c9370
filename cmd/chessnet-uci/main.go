package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/rs/zerolog"

	"github.com/hailam/chessnet/internal/config"
	"github.com/hailam/chessnet/internal/engine"
	"github.com/hailam/chessnet/internal/logx"
	"github.com/hailam/chessnet/internal/nn"
	"github.com/hailam/chessnet/internal/storage"
	"github.com/hailam/chessnet/internal/uci"
)

func main() {
	cfg := config.Default()
	flag.IntVar(&cfg.HashMB, "hash", cfg.HashMB, "Transposition table size in MB")
	flag.IntVar(&cfg.MaxDepth, "depth", cfg.MaxDepth, "Search depth for \"go\" without limits")
	flag.StringVar(&cfg.ModelPath, "model", "", "Path to a .nn network file")
	flag.BoolVar(&cfg.UseNetwork, "use-network", false, "Evaluate with the network instead of material")
	flag.StringVar(&cfg.DataDir, "data-dir", "", "Model store directory (default: platform data dir)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")
	flag.Parse()

	// stdout carries the protocol
	logger, err := logx.WithLevel(logx.NewLogger(os.Stderr), cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad log level")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		logger.Info().Str("path", *cpuprofile).Msg("CPU profiling enabled")
	}

	eng := engine.NewEngine(cfg.HashMB)
	eng.SetLogger(logger)

	protocol := uci.New(eng, os.Stdout, logger)
	protocol.DefaultDepth = cfg.MaxDepth

	net, err := loadNetwork(cfg, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("network not loaded, using material evaluation")
	} else {
		protocol.SetNetwork(net, cfg.UseNetwork)
	}

	if err := protocol.Run(os.Stdin); err != nil {
		logger.Error().Err(err).Msg("read commands")
	}
}

// loadNetwork reads the -model file, falling back to the model store.
func loadNetwork(cfg config.Config, logger zerolog.Logger) (*nn.Network, error) {
	if cfg.ModelPath != "" {
		net, err := nn.Load(cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		net.SetLogger(logger)
		logger.Info().Str("path", cfg.ModelPath).Ints("layers", net.LayerSizes()).Msg("network loaded")
		return net, nil
	}

	var (
		store *storage.ModelStore
		err   error
	)
	if cfg.DataDir != "" {
		store, err = storage.Open(cfg.DataDir)
	} else {
		store, err = storage.OpenDefault()
	}
	if err != nil {
		return nil, err
	}
	defer store.Close()
	store.SetLogger(logger)

	net, err := store.LoadNetwork()
	if err != nil {
		return nil, err
	}
	if net.InputSize() != nn.FeatureCount {
		return nil, fmt.Errorf("stored network takes %d inputs: %w", net.InputSize(), nn.ErrDimensionMismatch)
	}
	logger.Info().Ints("layers", net.LayerSizes()).Msg("network loaded from store")
	return net, nil
}
