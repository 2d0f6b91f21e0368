package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alexvogt/chesscoach/internal/logger"
)

// ErrUnavailable marks a transient engine failure: the process is gone, the
// evaluation timed out, or the protocol broke. Callers skip the position
// rather than treat it as a blunder.
var ErrUnavailable = errors.New("engine evaluation unavailable")

// Budget bounds a single evaluation. Depth and MoveTime trade accuracy for
// throughput; when MoveTime is set it takes precedence over Depth.
type Budget struct {
	Depth    int
	MoveTime time.Duration
}

// EvalResult is the engine's verdict on a position. CP is centipawns from
// white's perspective. Mate, when set, is moves-to-mate signed the same way;
// CP then carries the folded mate score (±(10000 - 10*n)).
type EvalResult struct {
	BestMove string
	CP       float64
	Mate     *int
}

// Engine wraps one UCI engine process. An Engine handles one evaluation at
// a time; concurrency comes from pooling engines, not multiplexing one.
type Engine struct {
	path string
	log  *logger.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  ioWriter
	stdout *bufio.Reader
	dead   bool
}

type ioWriter interface {
	Write([]byte) (int, error)
}

func New(path string) (*Engine, error) {
	log := logger.Default().WithPrefix("uci")

	if path == "" {
		path = "stockfish"
	}

	log.Info("starting engine: %s", path)
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Error("failed to create stdin pipe: %v", err)
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Error("failed to create stdout pipe: %v", err)
		return nil, err
	}

	e := &Engine{
		path:   path,
		log:    log,
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}

	if err := cmd.Start(); err != nil {
		log.Error("failed to start engine: %v", err)
		return nil, err
	}

	if err := e.init(); err != nil {
		log.Error("failed to initialize UCI: %v", err)
		_ = cmd.Process.Kill()
		return nil, err
	}

	log.Info("engine ready")
	return e, nil
}

func (e *Engine) init() error {
	if err := e.send("uci"); err != nil {
		return err
	}
	if err := e.waitFor("uciok", 2*time.Second); err != nil {
		return err
	}
	if err := e.send("isready"); err != nil {
		return err
	}
	return e.waitFor("readyok", 2*time.Second)
}

// Healthy reports whether the engine process is still usable.
func (e *Engine) Healthy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cmd != nil && !e.dead
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return nil
	}

	e.log.Debug("closing engine")
	_ = e.sendLocked("quit")
	err := e.cmd.Wait()
	e.cmd = nil

	if err != nil {
		e.log.Debug("engine process exited: %v", err)
	}
	return err
}

// Evaluate scores a FEN position within the given budget and returns the
// engine's best move. Failures are wrapped in ErrUnavailable so callers can
// distinguish a sick engine from bad input.
func (e *Engine) Evaluate(ctx context.Context, fen string, budget Budget) (EvalResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil || e.dead {
		return EvalResult{}, fmt.Errorf("%w: engine not running", ErrUnavailable)
	}

	depth := budget.Depth
	if depth <= 0 {
		depth = 15
	}
	log := e.log.WithField("depth", depth)

	start := time.Now()
	log.Debug("evaluating position")

	if err := e.sendLocked("ucinewgame"); err != nil {
		e.dead = true
		return EvalResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := e.sendLocked("position fen " + fen); err != nil {
		e.dead = true
		return EvalResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	goCmd := fmt.Sprintf("go depth %d", depth)
	if budget.MoveTime > 0 {
		goCmd = fmt.Sprintf("go movetime %d", budget.MoveTime.Milliseconds())
	}
	if err := e.sendLocked(goCmd); err != nil {
		e.dead = true
		return EvalResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// The engine scores from the side to move; normalize to white.
	parts := strings.Fields(fen)
	blackToMove := len(parts) > 1 && parts[1] == "b"

	var best EvalResult
	hardDeadline := 8 * time.Second
	if budget.MoveTime > 0 {
		hardDeadline = budget.MoveTime + 4*time.Second
	}
	deadline := time.Now().Add(hardDeadline)
	for {
		if ctx.Err() != nil {
			log.Warn("evaluation cancelled: %v", ctx.Err())
			return EvalResult{}, ctx.Err()
		}
		if time.Now().After(deadline) {
			log.Error("evaluation timed out after %v", hardDeadline)
			e.dead = true
			return EvalResult{}, fmt.Errorf("%w: timeout", ErrUnavailable)
		}
		line, err := e.stdout.ReadString('\n')
		if err != nil {
			log.Error("failed to read from engine: %v", err)
			e.dead = true
			return EvalResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "info") {
			if score, ok := parseScore(line); ok {
				best.CP = score.CP
				best.Mate = score.Mate
				if blackToMove {
					best.CP = -best.CP
					if best.Mate != nil {
						m := -*best.Mate
						best.Mate = &m
					}
				}
			}
		}
		if strings.HasPrefix(line, "bestmove") {
			fields := strings.Fields(line)
			if len(fields) >= 2 && fields[1] != "(none)" {
				best.BestMove = fields[1]
			}
			log.Debug("evaluation completed in %v: cp=%.0f bestmove=%s", time.Since(start), best.CP, best.BestMove)
			return best, nil
		}
	}
}

type score struct {
	CP   float64
	Mate *int
}

// parseScore extracts "score cp N" or "score mate N" from a UCI info line,
// from the side to move's perspective. Mate scores fold into centipawns as
// 10000 - 10*n so a nearer mate always outranks a farther one.
func parseScore(line string) (score, bool) {
	parts := strings.Fields(line)
	for i := 0; i < len(parts); i++ {
		if parts[i] != "score" || i+2 >= len(parts) {
			continue
		}
		switch parts[i+1] {
		case "cp":
			if v, err := strconv.Atoi(parts[i+2]); err == nil {
				return score{CP: float64(v)}, true
			}
		case "mate":
			if n, err := strconv.Atoi(parts[i+2]); err == nil {
				cp := 10000.0 - float64(n)*10.0
				if n < 0 {
					cp = -10000.0 - float64(n)*10.0
				}
				return score{CP: cp, Mate: &n}, true
			}
		}
	}
	return score{}, false
}

func (e *Engine) send(cmd string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sendLocked(cmd)
}

func (e *Engine) sendLocked(cmd string) error {
	_, err := e.stdin.Write([]byte(cmd + "\n"))
	return err
}

func (e *Engine) waitFor(marker string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			e.log.Error("timeout waiting for %s", marker)
			return fmt.Errorf("timeout waiting for %s", marker)
		}
		line, err := e.stdout.ReadString('\n')
		if err != nil {
			return err
		}
		if strings.Contains(line, marker) {
			return nil
		}
	}
}
