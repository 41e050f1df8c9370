package train

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/freeeve/pgn/v3"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessnet/internal/board"
	"github.com/hailam/chessnet/internal/nn"
)

// Sample is one labelled training example. Features are encoded from the
// side to move and Target is that side's win probability.
type Sample struct {
	FEN      string
	Features []float32
	Target   float32
}

// LoadPGNPositions replays the games in a PGN file (plain or .zst) and
// returns the distinct positions reached, up to maxPositions when positive.
func LoadPGNPositions(ctx context.Context, path string, maxPositions int) ([]string, error) {
	parser := pgn.Games(path)

	seen := make(map[string]struct{})
	var fens []string
	add := func(fen string) bool {
		if _, ok := seen[fen]; !ok {
			seen[fen] = struct{}{}
			fens = append(fens, fen)
		}
		return maxPositions > 0 && len(fens) >= maxPositions
	}

	stopped := false
	stop := func() {
		if !stopped {
			parser.Stop()
			stopped = true
		}
	}

gameLoop:
	for game := range parser.Games {
		select {
		case <-ctx.Done():
			stop()
			break gameLoop
		default:
		}

		pos := pgn.NewStartingPosition()
		for _, mv := range game.Moves {
			if add(pos.ToFEN()) {
				stop()
				break gameLoop
			}
			if err := pgn.ApplyMove(pos, mv); err != nil {
				break
			}
		}
		if add(pos.ToFEN()) {
			stop()
			break
		}
	}

	if err := parser.Err(); err != nil {
		return fens, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return fens, err
	}
	return fens, nil
}

// BuildSamples labels fens in parallel. Each of workers goroutines gets its
// own Labeler from newLabeler; labelers that implement io.Closer are closed
// when their worker exits. Malformed FENs and positions without legal moves
// are skipped.
func BuildSamples(ctx context.Context, fens []string, newLabeler func() (Labeler, error), workers int) ([]Sample, error) {
	if workers < 1 {
		workers = 1
	}

	out := make([]Sample, len(fens))
	ok := make([]bool, len(fens))
	var next atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			labeler, err := newLabeler()
			if err != nil {
				return fmt.Errorf("create labeler: %w", err)
			}
			if c, isCloser := labeler.(io.Closer); isCloser {
				defer c.Close()
			}

			for {
				i := int(next.Add(1) - 1)
				if i >= len(fens) {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}

				pos, err := board.ParseFEN(fens[i])
				if err != nil || !pos.HasLegalMoves() {
					continue
				}
				target, err := labeler.Label(ctx, pos)
				if err != nil {
					return fmt.Errorf("label %q: %w", fens[i], err)
				}
				out[i] = Sample{
					FEN:      fens[i],
					Features: nn.ExtractFeatures(pos, pos.SideToMove, nil),
					Target:   target,
				}
				ok[i] = true
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	samples := out[:0]
	for i, s := range out {
		if ok[i] {
			samples = append(samples, s)
		}
	}
	return samples, nil
}
