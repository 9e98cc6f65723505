package uci

import (
	"context"
	"strings"
	"sync"
	"time"

	gouci "github.com/freeeve/uci"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Options configures an engine process.
type Options struct {
	Path    string
	Args    []string
	Hash    int // MB, 0 keeps the engine default
	Threads int // 0 keeps the engine default
	Nice    int // scheduling priority of the engine process, 0 leaves it alone

	// Limits used when BestMove is called with zero limits.
	DefaultLimits Limits

	Logger zerolog.Logger
}

type searchResult struct {
	res *gouci.Results
	err error
}

// Process is an engine running as a child process.
type Process struct {
	eng    *gouci.Engine
	path   string
	limits Limits
	log    zerolog.Logger

	mu      sync.Mutex
	closed  bool
	pending chan searchResult // search still running after a cancellation
}

// Start launches the engine, switches it to UCI mode and sets its options.
func Start(opts Options) (*Process, error) {
	var (
		eng *gouci.Engine
		err error
	)
	if opts.Nice != 0 {
		eng, err = gouci.NewEngineNice(opts.Nice, opts.Path, opts.Args...)
	} else {
		eng, err = gouci.NewEngine(opts.Path, opts.Args...)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "start engine %s", opts.Path)
	}

	logger := opts.Logger.With().Str("engine", opts.Path).Logger()
	p := &Process{
		eng:    eng,
		path:   opts.Path,
		limits: opts.DefaultLimits,
		log:    logger,
	}
	if p.limits.IsZero() {
		p.limits = Limits{Depth: 12}
	}

	if err := p.init(opts); err != nil {
		eng.Close()
		return nil, err
	}
	logger.Info().Int("hash", opts.Hash).Int("threads", opts.Threads).Msg("engine started")
	return p, nil
}

func (p *Process) init(opts Options) error {
	if err := p.eng.UCI(); err != nil {
		return errors.Wrap(err, "uci handshake")
	}
	err := p.eng.SetOptions(gouci.Options{
		Hash:    opts.Hash,
		Threads: opts.Threads,
		MultiPV: 1,
	})
	return errors.Wrap(err, "set engine options")
}

// Path returns the engine binary the process was started from.
func (p *Process) Path() string {
	return p.path
}

// NewGame tells the engine the next search belongs to a different game.
func (p *Process) NewGame() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Wrap(p.eng.SendCommand("ucinewgame"), "new game")
}

// BestMove sends the position, searches within limits and returns the
// engine's answer. Zero limits select the defaults. If ctx ends first the
// search is stopped, and the analysis gathered so far is returned with the
// context's error. Calls are serialized.
func (p *Process) BestMove(ctx context.Context, pos Position, limits Limits) (Analysis, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return Analysis{}, errors.New("uci: engine closed")
	}
	if err := p.settle(ctx); err != nil {
		return Analysis{}, err
	}

	if limits.IsZero() {
		limits = p.limits
	}
	depth, moveTime := limits.search(pos.SideToMove())
	if depth == 0 && moveTime == 0 {
		depth = max(p.limits.Depth, 1)
	}

	if err := p.setPosition(pos); err != nil {
		return Analysis{}, err
	}
	p.log.Debug().Int("depth", depth).Int64("movetime", moveTime).Msg("search started")

	ch := make(chan searchResult, 1)
	go func() {
		res, err := p.eng.Go(depth, "", moveTime)
		ch <- searchResult{res, err}
	}()

	select {
	case r := <-ch:
		return p.finish(r)
	case <-ctx.Done():
	}

	p.log.Debug().Msg("search cancelled, stopping engine")
	if err := p.eng.SendCommand("stop"); err != nil {
		p.log.Warn().Err(err).Msg("stop not delivered")
	}
	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		a, _ := p.finish(r)
		return a, ctx.Err()
	case <-timer.C:
		p.log.Warn().Msg("engine did not answer stop")
		p.pending = ch
		return Analysis{}, ctx.Err()
	}
}

// settle waits for a search left running by an earlier cancellation.
func (p *Process) settle(ctx context.Context) error {
	if p.pending == nil {
		return nil
	}
	select {
	case <-p.pending:
		p.pending = nil
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "engine still busy with a stopped search")
	}
}

func (p *Process) setPosition(pos Position) error {
	var err error
	switch {
	case pos.FEN == "" && len(pos.Moves) > 0:
		err = p.eng.SetMoves(strings.Join(pos.Moves, " "))
	case pos.FEN != "" && len(pos.Moves) == 0:
		err = p.eng.SetFEN(pos.FEN)
	default:
		err = p.eng.SendCommand(pos.Command())
	}
	return errors.Wrap(err, "send position")
}

func (p *Process) finish(r searchResult) (Analysis, error) {
	if r.err != nil {
		return Analysis{}, errors.Wrap(r.err, "search")
	}
	a, err := analysisOf(r.res)
	if err != nil {
		return a, err
	}
	p.log.Debug().
		Str("bestmove", a.BestMove).
		Int("depth", a.Depth).
		Uint64("nodes", a.Nodes).
		Int("cp", a.Score.CP).
		Msg("search done")
	return a, nil
}

// analysisOf reads the deepest principal line of a search. Lines of
// secondary principal variations are ignored.
func analysisOf(res *gouci.Results) (Analysis, error) {
	a := Analysis{BestMove: res.BestMove}

	found := false
	var best gouci.ScoreResult
	for _, r := range res.Results {
		if r.MultiPV > 1 {
			continue
		}
		if !found || r.Depth >= best.Depth {
			best, found = r, true
		}
	}
	if found {
		a.Depth = best.Depth
		a.Nodes = uint64(best.Nodes)
		a.PV = append([]string(nil), best.BestMoves...)
		if best.Mate {
			a.Score = Score{Mate: best.Score, IsMate: true}
		} else {
			a.Score = Score{CP: best.Score}
		}
	}
	if len(a.PV) > 1 && a.PV[0] == a.BestMove {
		a.Ponder = a.PV[1]
	}

	switch a.BestMove {
	case "", "(none)", "0000":
		a.BestMove = ""
		return a, ErrNoBestMove
	}
	return a, nil
}

// Close asks the engine to quit and kills the process.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.eng.SendCommand("quit"); err != nil {
		p.log.Debug().Err(err).Msg("quit not delivered")
	}
	p.eng.Close()
	return nil
}
