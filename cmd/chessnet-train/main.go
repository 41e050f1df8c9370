package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessnet/internal/board"
	"github.com/hailam/chessnet/internal/config"
	"github.com/hailam/chessnet/internal/engine"
	"github.com/hailam/chessnet/internal/logx"
	"github.com/hailam/chessnet/internal/nn"
	"github.com/hailam/chessnet/internal/storage"
	"github.com/hailam/chessnet/internal/train"
)

func main() {
	cfg := config.Default()
	var (
		pgnPath      = flag.String("pgn", "", "PGN file of training games (supports .zst)")
		fenPath      = flag.String("fens", "", "File with one FEN per line")
		maxPositions = flag.Int("max-positions", 100000, "Maximum positions to load (0 = unlimited)")
		labelerName  = flag.String("labeler", "material", "Target source: material, search or oracle")
		oraclePath   = flag.String("oracle", "stockfish", "UCI engine binary for the oracle labeler")
		oracleDepth  = flag.Int("oracle-depth", 12, "Oracle search depth")
		epochs       = flag.Int("epochs", 10, "Training epochs over the sample set")
		batchSize    = flag.Int("batch", 64, "Examples per batch")
		distill      = flag.Int("distill", 0, "Search distillation passes after the epochs")
		seed         = flag.Uint64("seed", 1, "Seed for weight init and shuffling")
		hidden       = flag.String("hidden", config.FormatHidden(cfg.Hidden), "Hidden layer sizes, comma separated")
		outPath      = flag.String("out", "", "Write the trained network to this .nn file")
		resume       = flag.Bool("resume", false, "Continue from the network in the model store")
	)
	flag.Float64Var(&cfg.LearningRate, "lr", cfg.LearningRate, "Learning rate")
	flag.StringVar(&cfg.Activation, "activation", cfg.Activation, "Hidden activation (linear, relu, sigmoid, tanh)")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Labelling workers")
	flag.IntVar(&cfg.DistillDepth, "distill-depth", cfg.DistillDepth, "Search depth for labels and distillation")
	flag.IntVar(&cfg.HashMB, "hash", cfg.HashMB, "Transposition table size in MB per search engine")
	flag.StringVar(&cfg.DataDir, "data-dir", "", "Model store directory (default: platform data dir)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	logger, err := logx.WithLevel(logx.NewLogger(os.Stderr), cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad log level")
	}

	if *pgnPath == "" && *fenPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: chessnet-train (--pgn <file.pgn[.zst]> | --fens <file>) [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if cfg.Hidden, err = config.ParseHidden(*hidden); err != nil {
		logger.Fatal().Err(err).Msg("invalid hidden layers")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("open model store")
	}
	defer store.Close()
	store.SetLogger(logger)

	net, err := initNetwork(cfg, store, *resume, *seed)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialize network")
	}
	net.SetLogger(logger)
	logger.Info().Ints("layers", net.LayerSizes()).Str("activation", cfg.Activation).Msg("network ready")

	fens, err := loadPositions(ctx, *pgnPath, *fenPath, *maxPositions)
	if err != nil {
		logger.Fatal().Err(err).Msg("load positions")
	}
	logger.Info().Int("positions", len(fens)).Msg("positions loaded")

	newLabeler, err := labelerFactory(*labelerName, cfg, *oraclePath, *oracleDepth)
	if err != nil {
		logger.Fatal().Err(err).Msg("labeler")
	}

	start := time.Now()
	samples, err := train.BuildSamples(ctx, fens, newLabeler, cfg.Workers)
	if err != nil {
		logger.Fatal().Err(err).Msg("build samples")
	}
	logger.Info().
		Int("samples", len(samples)).
		Str("labeler", *labelerName).
		Int("workers", cfg.Workers).
		Dur("elapsed", time.Since(start)).
		Msg("samples labelled")

	eng := engine.NewEngine(cfg.HashMB)
	eng.SetLogger(logger)
	eng.SetEvaluator(nn.NewEvaluator(net))
	trainer := train.NewTrainer(net, eng, logger)
	trainer.DistillDepth = cfg.DistillDepth
	lr := float32(cfg.LearningRate)

	for epoch := 1; epoch <= *epochs; epoch++ {
		loss, err := trainer.TrainEpoch(ctx, samples, *batchSize, lr, *seed+uint64(epoch))
		if err != nil {
			logger.Warn().Err(err).Int("epoch", epoch).Msg("training interrupted")
			break
		}
		logger.Info().Int("epoch", epoch).Float32("loss", loss).Msg("epoch complete")
	}

	if err := distillPasses(ctx, trainer, samples, *distill, lr, logger); err != nil {
		logger.Warn().Err(err).Msg("distillation interrupted")
	}

	stats := trainer.Stats()
	logger.Info().
		Int64("examples", stats.Examples).
		Int64("search_examples", stats.SearchExamples).
		Float32("avg_loss", stats.AvgLoss).
		Msg("training finished")

	if err := store.SaveNetwork(net); err != nil {
		logger.Fatal().Err(err).Msg("save network")
	}
	if *outPath != "" {
		path, err := net.Save(*outPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("write model file")
		}
		logger.Info().Str("path", path).Msg("model file written")
	}
}

func openStore(cfg config.Config) (*storage.ModelStore, error) {
	if cfg.DataDir != "" {
		return storage.Open(cfg.DataDir)
	}
	return storage.OpenDefault()
}

// initNetwork resumes from the store when asked and available, otherwise
// builds a fresh network.
func initNetwork(cfg config.Config, store *storage.ModelStore, resume bool, seed uint64) (*nn.Network, error) {
	if resume {
		net, err := store.LoadNetwork()
		if err == nil {
			return net, nil
		}
		if !errors.Is(err, storage.ErrNoNetwork) {
			return nil, err
		}
	}
	return nn.NewChessNetwork(cfg.Hidden, cfg.ActivationFunc(), seed)
}

func loadPositions(ctx context.Context, pgnPath, fenPath string, maxPositions int) ([]string, error) {
	if pgnPath != "" {
		return train.LoadPGNPositions(ctx, pgnPath, maxPositions)
	}

	f, err := os.Open(fenPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var fens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fens = append(fens, line)
		if maxPositions > 0 && len(fens) >= maxPositions {
			break
		}
	}
	return fens, scanner.Err()
}

func labelerFactory(name string, cfg config.Config, oraclePath string, oracleDepth int) (func() (train.Labeler, error), error) {
	switch name {
	case "material":
		return func() (train.Labeler, error) { return train.MaterialLabeler{}, nil }, nil
	case "search":
		return func() (train.Labeler, error) {
			return train.NewSearchLabeler(cfg.HashMB, cfg.DistillDepth, nil), nil
		}, nil
	case "oracle":
		return func() (train.Labeler, error) {
			l, err := train.NewOracleLabeler(train.OracleConfig{Path: oraclePath, Depth: oracleDepth, HashMB: 64, Threads: 1})
			if err != nil {
				return nil, err
			}
			return l, nil
		}, nil
	}
	return nil, fmt.Errorf("unknown labeler %q", name)
}

// distillPasses refines the network against its own shallow search.
func distillPasses(ctx context.Context, trainer *train.Trainer, samples []train.Sample, passes int, lr float32, logger zerolog.Logger) error {
	for pass := 1; pass <= passes; pass++ {
		var sum float64
		for _, s := range samples {
			pos, err := board.ParseFEN(s.FEN)
			if err != nil {
				continue
			}
			loss, err := trainer.TrainWithSearch(ctx, pos, pos.SideToMove, lr)
			if err != nil {
				return err
			}
			sum += float64(loss)
		}
		if len(samples) > 0 {
			logger.Info().Int("pass", pass).Float64("loss", sum/float64(len(samples))).Msg("distillation pass complete")
		}
	}
	return nil
}
