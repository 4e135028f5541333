// Package autoplay plays one seat of a live session in practice mode.
package autoplay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/engine"
	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/session"
	"github.com/rs/zerolog"
)

// Sender writes a command to the authoritative peer.
type Sender interface {
	Send(cmd session.Command) error
}

// Options configures an Agent.
type Options struct {
	PlayerID string
	Engine   *engine.Engine
	Sender   Sender
	Logger   *zerolog.Logger
	// Delay before each action, so humans at the table can follow.
	Delay time.Duration
}

// Agent decides and sends ROLL_DICE and MOVE_PIECE for PlayerID. It is a
// session.Observer; feed it snapshots and run it with Run.
type Agent struct {
	playerID string
	engine   *engine.Engine
	sender   Sender
	log      zerolog.Logger
	delay    time.Duration

	mu      sync.Mutex
	pending *engine.Snapshot
	wake    chan struct{}

	lastKey string
	done    chan struct{}
	once    sync.Once
}

// NewAgent returns an idle Agent.
func NewAgent(opts Options) (*Agent, error) {
	if opts.PlayerID == "" {
		return nil, errors.New("autoplay: player id is required")
	}
	if opts.Sender == nil {
		return nil, errors.New("autoplay: sender is required")
	}
	a := &Agent{
		playerID: opts.PlayerID,
		engine:   opts.Engine,
		sender:   opts.Sender,
		delay:    opts.Delay,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if a.engine == nil {
		a.engine = engine.NewEngine(engine.EngineOptions{})
	}
	if opts.Logger != nil {
		a.log = opts.Logger.With().Str("component", "autoplay").Str("player", opts.PlayerID).Logger()
	} else {
		a.log = zerolog.Nop()
	}
	return a, nil
}

// Decide returns the command the agent would send for s, if any.
func (a *Agent) Decide(s engine.Snapshot) (session.Command, bool, error) {
	if s.Status != engine.StatusPlaying {
		return session.Command{}, false, nil
	}
	active, ok := s.ActivePlayer()
	if !ok || active.ID != a.playerID || active.Removed {
		return session.Command{}, false, nil
	}
	if s.DiceValue == nil {
		return session.RollDice(), true, nil
	}
	if len(s.MovablePieces) == 0 {
		// the peer passes the turn itself
		return session.Command{}, false, nil
	}
	id, err := a.engine.BestMove(s)
	if err != nil {
		return session.Command{}, false, fmt.Errorf("autoplay: choosing move: %w", err)
	}
	return session.MovePiece(id), true, nil
}

// Step acts on one snapshot. A snapshot that repeats the last acted-on state
// is skipped, so each state gets at most one command.
func (a *Agent) Step(ctx context.Context, s engine.Snapshot) error {
	cmd, ok, err := a.Decide(s)
	if err != nil {
		return err
	}
	if !ok {
		// a turn passed; the same position may legitimately recur
		a.lastKey = ""
		return nil
	}
	key := stateKey(s)
	if key == a.lastKey {
		return nil
	}

	if a.delay > 0 {
		t := time.NewTimer(a.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	if err := a.sender.Send(cmd); err != nil {
		a.log.Warn().Err(err).Str("action", cmd.Action).Msg("command not sent")
		return err
	}
	a.lastKey = key

	ev := a.log.Info().Str("action", cmd.Action)
	if s.DiceValue != nil {
		ev = ev.Int("die", *s.DiceValue)
	}
	ev.Msg("sent")
	return nil
}

// Run processes snapshots until ctx is done or Stop is called. Only the
// latest snapshot matters, so older unprocessed ones are dropped.
func (a *Agent) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.done:
			return nil
		case <-a.wake:
		}

		a.mu.Lock()
		s := a.pending
		a.pending = nil
		a.mu.Unlock()
		if s == nil {
			continue
		}
		if err := a.Step(ctx, *s); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Stop ends Run, for example when the session is over.
func (a *Agent) Stop() {
	a.once.Do(func() { close(a.done) })
}

func (a *Agent) SnapshotReceived(s engine.Snapshot) {
	a.mu.Lock()
	a.pending = &s
	a.mu.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *Agent) StatusChanged(s session.Status) {
	a.log.Info().Stringer("status", s).Msg("session status")
}

func (a *Agent) ErrorReported(err error) {
	var srv *session.ServerError
	if errors.As(err, &srv) {
		a.log.Warn().Str("message", srv.Message).Msg("server error")
		return
	}
	a.log.Error().Err(err).Msg("session error")
}

func stateKey(s engine.Snapshot) string {
	die := 0
	if s.DiceValue != nil {
		die = *s.DiceValue
	}
	return fmt.Sprintf("%s|%d|%d|%v", engine.PositionID(s), s.CurrentPlayerIndex, die, s.MovablePieces)
}
