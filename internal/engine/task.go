package engine

import (
	"context"

	"github.com/hailam/chessnet/internal/board"
)

// Task is a search running in the background on a private copy of the
// position. Wait is the single join point.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	result Result
	err    error
}

// Start launches SearchWithLimits in a goroutine.
func (e *Engine) Start(pos *board.Position, limits SearchLimits) *Task {
	return e.StartContext(context.Background(), pos, limits)
}

// StartContext is Start with a parent context.
func (e *Engine) StartContext(ctx context.Context, pos *board.Position, limits SearchLimits) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	snapshot := pos.Copy()

	go func() {
		defer close(t.done)
		defer cancel()
		t.result, t.err = e.SearchWithLimits(ctx, snapshot, limits)
	}()
	return t
}

// Cancel asks the search to stop. The result of the deepest completed
// iteration is still delivered by Wait.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed when the search has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the search finishes and returns its result.
func (t *Task) Wait() (Result, error) {
	<-t.done
	return t.result, t.err
}
