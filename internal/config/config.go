// Package config holds the tunables shared by the engine and trainer
// binaries.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hailam/chessnet/internal/engine"
	"github.com/hailam/chessnet/internal/nn"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config collects engine, network and training settings.
type Config struct {
	HashMB       int
	MaxDepth     int
	DistillDepth int
	LearningRate float64
	Hidden       []int
	Activation   string
	Workers      int
	DataDir      string
	ModelPath    string
	UseNetwork   bool
	LogLevel     string
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		HashMB:       engine.DefaultHashMB,
		MaxDepth:     6,
		DistillDepth: 2,
		LearningRate: 0.01,
		Hidden:       []int{128, 32},
		Activation:   "relu",
		Workers:      4,
		LogLevel:     "info",
	}
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	var errs []error
	if c.HashMB < 1 || c.HashMB > 4096 {
		errs = append(errs, fmt.Errorf("hash %d MB out of range [1,4096]", c.HashMB))
	}
	if c.MaxDepth < 1 || c.MaxDepth >= engine.MaxPly {
		errs = append(errs, fmt.Errorf("max depth %d out of range [1,%d)", c.MaxDepth, engine.MaxPly))
	}
	if c.DistillDepth < 1 || c.DistillDepth >= engine.MaxPly {
		errs = append(errs, fmt.Errorf("distill depth %d out of range [1,%d)", c.DistillDepth, engine.MaxPly))
	}
	if c.LearningRate <= 0 || c.LearningRate > 10 {
		errs = append(errs, fmt.Errorf("learning rate %g out of range (0,10]", c.LearningRate))
	}
	for i, h := range c.Hidden {
		if h < 1 {
			errs = append(errs, fmt.Errorf("hidden layer %d has size %d", i, h))
		}
	}
	if _, err := nn.ParseActivation(c.Activation); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers %d < 1", c.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ActivationFunc returns the parsed hidden activation.
func (c Config) ActivationFunc() nn.Activation {
	act, err := nn.ParseActivation(c.Activation)
	if err != nil {
		return nn.ReLU
	}
	return act
}

// ParseHidden parses a comma separated list of layer sizes such as "128,32".
// An empty string means no hidden layers.
func ParseHidden(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	sizes := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: hidden size %q", ErrInvalidConfig, p)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

// FormatHidden is the inverse of ParseHidden.
func FormatHidden(sizes []int) string {
	parts := make([]string, len(sizes))
	for i, n := range sizes {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
