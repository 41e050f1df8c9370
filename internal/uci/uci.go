// Package uci implements the Universal Chess Interface protocol on top of
// the engine.
package uci

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessnet/internal/board"
	"github.com/hailam/chessnet/internal/engine"
	"github.com/hailam/chessnet/internal/nn"
)

const (
	engineName   = "ChessNet"
	engineAuthor = "ChessNet Team"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine *engine.Engine
	game   *board.Game
	log    zerolog.Logger

	outMu sync.Mutex
	out   io.Writer

	// Evaluation network configuration
	net        *nn.Network
	useNetwork bool
	hashMB     int // 0 until set by the Hash option

	// DefaultDepth bounds a "go" without depth or time limits.
	DefaultDepth int

	// Search state
	task       *engine.Task
	searchDone chan struct{}
}

// New creates a UCI protocol handler writing responses to out.
func New(eng *engine.Engine, out io.Writer, log zerolog.Logger) *UCI {
	return &UCI{
		engine:       eng,
		game:         board.NewGame(),
		log:          log.With().Str("component", "uci").Logger(),
		out:          out,
		DefaultDepth: 6,
	}
}

// SetNetwork installs a network for evaluation. It is only used for search
// when use is true.
func (u *UCI) SetNetwork(net *nn.Network, use bool) {
	u.net = net
	u.useNetwork = use
	u.applyEvaluator()
}

func (u *UCI) applyEvaluator() {
	if u.useNetwork && u.net.Initialized() {
		u.engine.SetEvaluator(nn.NewEvaluator(u.net))
		return
	}
	u.engine.SetEvaluator(nil)
}

// Game returns the current game state.
func (u *UCI) Game() *board.Game {
	return u.game
}

func (u *UCI) println(a ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintln(u.out, a...)
}

func (u *UCI) printf(format string, a ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format, a...)
}

// Run reads commands from in until "quit" or end of input. A running
// search is finished before Run returns.
func (u *UCI) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !u.Handle(line) {
			return nil
		}
	}
	u.handleStop()
	return scanner.Err()
}

// Handle executes one command line. It returns false on "quit".
func (u *UCI) Handle(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "uci":
		u.handleUCI()
	case "isready":
		u.println("readyok")
	case "ucinewgame":
		u.handleNewGame()
	case "position":
		u.handlePosition(args)
	case "go":
		u.handleGo(args)
	case "stop":
		u.handleStop()
	case "quit":
		u.handleStop()
		return false
	case "setoption":
		u.handleSetOption(args)
	// Debug commands
	case "d":
		u.println(u.game.String())
		u.println("Fen:", u.game.FEN())
	case "eval":
		u.handleEval()
	case "perft":
		u.handlePerft(args)
	case "divide":
		u.handleDivide(args)
	default:
		u.log.Debug().Str("cmd", cmd).Msg("unknown command")
	}
	return true
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.println("id name", engineName)
	u.println("id author", engineAuthor)
	u.println()
	u.printf("option name Hash type spin default %d min 1 max 4096\n", engine.DefaultHashMB)
	u.println("option name UseNetwork type check default", u.useNetwork)
	u.println("option name EvalFile type string default <empty>")
	u.println("option name Clear Hash type button")
	u.println("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	u.game = board.NewGame()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	switch args[0] {
	case "startpos":
		u.game = board.NewGame()
	case "fen":
		fen := strings.Join(args[1:movesAt], " ")
		if _, err := board.ParseFEN(fen); err != nil {
			u.printf("info string Invalid FEN: %v\n", err)
			return
		}
		game := board.NewGame()
		game.Setup(fen)
		u.game = game
	default:
		return
	}

	if movesAt+1 >= len(args) {
		return
	}
	for _, s := range args[movesAt+1:] {
		if err := u.game.ApplyUCI(s); err != nil {
			u.printf("info string Invalid move %s: %v\n", s, err)
			return
		}
	}
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// ParseGoOptions parses "go" command arguments. Unknown tokens are ignored.
func ParseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	next := func(i int) (int, bool) {
		if i+1 >= len(args) {
			return 0, false
		}
		n, err := strconv.Atoi(args[i+1])
		return n, err == nil
	}
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }

	for i := 0; i < len(args); i++ {
		if args[i] == "infinite" {
			opts.Infinite = true
			continue
		}
		n, ok := next(i)
		if !ok {
			continue
		}
		switch args[i] {
		case "depth":
			opts.Depth = n
		case "movetime":
			opts.MoveTime = ms(n)
		case "wtime":
			opts.WTime = ms(n)
		case "btime":
			opts.BTime = ms(n)
		case "winc":
			opts.WInc = ms(n)
		case "binc":
			opts.BInc = ms(n)
		case "movestogo":
			opts.MovesToGo = n
		default:
			continue
		}
		i++
	}
	return opts
}

// Limits converts GoOptions to engine.SearchLimits for a game at ply.
// Without any bound the search is capped at defaultDepth.
func (o GoOptions) Limits(ply, defaultDepth int) engine.SearchLimits {
	if o.Infinite {
		return engine.SearchLimits{Infinite: true, Depth: o.Depth}
	}

	limits := engine.SearchLimits{Depth: o.Depth, MoveTime: o.MoveTime, Ply: ply}
	if o.MoveTime == 0 && (o.WTime > 0 || o.BTime > 0) {
		limits.Clock = engine.ClockLimits{
			Time:      [2]time.Duration{o.WTime, o.BTime},
			Inc:       [2]time.Duration{o.WInc, o.BInc},
			MovesToGo: o.MovesToGo,
		}
	}
	if limits.Depth == 0 && limits.MoveTime == 0 && limits.Clock.IsZero() {
		limits.Depth = defaultDepth
	}
	return limits
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(args []string) {
	u.handleStop()

	pos := u.game.Position().Copy()
	ply := (pos.FullMoveNumber-1)*2 + int(pos.SideToMove)
	limits := ParseGoOptions(args).Limits(ply, u.DefaultDepth)

	stm := pos.SideToMove
	u.engine.OnInfo = func(info engine.SearchInfo) {
		u.sendInfo(info, stm)
	}

	u.log.Debug().
		Int("depth", limits.Depth).
		Dur("movetime", limits.MoveTime).
		Bool("infinite", limits.Infinite).
		Msg("search started")

	task := u.engine.Start(pos, limits)
	done := make(chan struct{})
	u.task, u.searchDone = task, done

	go func() {
		defer close(done)
		res, err := task.Wait()
		if err != nil && !errors.Is(err, engine.ErrNoLegalMoves) {
			u.log.Warn().Err(err).Msg("search failed")
		}
		if res.Found {
			u.println("bestmove", res.Move.String())
			return
		}
		// Only send 0000 for checkmate/stalemate (no legal moves)
		u.println("bestmove 0000")
	}()
}

// sendInfo outputs search info in UCI format, scored for the side to move.
func (u *UCI) sendInfo(info engine.SearchInfo, stm board.Color) {
	parts := []string{fmt.Sprintf("depth %d", info.Depth)}
	parts = append(parts, formatScore(info.Score, stm))
	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if !info.Move.IsNull() {
		parts = append(parts, "pv "+info.Move.String())
	}

	u.printf("info %s\n", strings.Join(parts, " "))
}

// formatScore converts a White-positive score to a UCI "score" field.
func formatScore(score int, stm board.Color) string {
	if stm == board.Black {
		score = -score
	}
	switch {
	case score >= engine.MateThreshold:
		return fmt.Sprintf("score mate %d", (engine.CheckmateScore-score+1)/2)
	case score <= -engine.MateThreshold:
		return fmt.Sprintf("score mate %d", -(engine.CheckmateScore+score+1)/2)
	default:
		return fmt.Sprintf("score cp %d", score)
	}
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.task == nil {
		return
	}
	u.task.Cancel()
	<-u.searchDone
	u.task, u.searchDone = nil, nil
}

// Wait blocks until the current search, if any, has printed its bestmove.
func (u *UCI) Wait() {
	if u.searchDone != nil {
		<-u.searchDone
	}
}

// parseSetOption splits "name <name> value <value>".
func parseSetOption(args []string) (name, value string) {
	var nameParts, valueParts []string
	target := &nameParts
	for _, arg := range args {
		switch arg {
		case "name":
			target = &nameParts
		case "value":
			target = &valueParts
		default:
			*target = append(*target, arg)
		}
	}
	return strings.Join(nameParts, " "), strings.Join(valueParts, " ")
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	u.handleStop()
	name, value := parseSetOption(args)

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil || mb < 1 || mb > 4096 {
			u.printf("info string Invalid hash size %q\n", value)
			return
		}
		u.resizeHash(mb)
	case "clear hash":
		u.engine.Clear()
	case "usenetwork":
		u.useNetwork = strings.ToLower(value) == "true"
		if u.useNetwork && !u.net.Initialized() {
			u.println("info string No network loaded, using material evaluation")
		}
		u.applyEvaluator()
	case "evalfile":
		net, err := nn.Load(value)
		if err != nil {
			u.printf("info string Failed to load network: %v\n", err)
			return
		}
		if net.InputSize() != nn.FeatureCount {
			u.printf("info string Network input size %d, want %d\n", net.InputSize(), nn.FeatureCount)
			return
		}
		net.SetLogger(u.log)
		u.net = net
		u.applyEvaluator()
		u.printf("info string Network loaded from %s\n", value)
	default:
		u.log.Debug().Str("name", name).Msg("unknown option")
	}
}

// resizeHash replaces the engine with one using a table of mb megabytes.
func (u *UCI) resizeHash(mb int) {
	if mb == u.hashMB {
		return
	}
	eng := engine.NewEngine(mb)
	eng.SetLogger(u.log)
	u.engine = eng
	u.hashMB = mb
	u.applyEvaluator()
}

// handleEval prints the static evaluation of the current position.
func (u *UCI) handleEval() {
	u.handleStop()
	score := u.engine.Evaluate(u.game.Position())
	u.printf("Evaluation: %d cp (%s, White-positive)\n", score, engine.ScoreToString(score))
}

func depthArg(args []string, def int) int {
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d >= 0 {
			return d
		}
	}
	return def
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	depth := depthArg(args, 5)

	start := time.Now()
	nodes := u.engine.Perft(u.game.Position(), depth)
	elapsed := time.Since(start)

	u.printf("Nodes: %d\n", nodes)
	u.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		u.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}

// handleDivide prints the perft count below each root move.
func (u *UCI) handleDivide(args []string) {
	depth := depthArg(args, 1)
	div := u.game.Position().Copy().Divide(depth)

	moves := make([]string, 0, len(div))
	for m := range div {
		moves = append(moves, m)
	}
	slices.Sort(moves)

	var total uint64
	for _, m := range moves {
		u.printf("%s: %d\n", m, div[m])
		total += div[m]
	}
	u.printf("Total: %d\n", total)
}
