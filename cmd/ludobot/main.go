// Command ludobot joins a Ludo session and plays one seat automatically.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/internal/config"
	"github.com/SamraT-Hacking/Ludo-Baji-sub001/internal/logger"
	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/autoplay"
	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/engine"
	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/session"
)

const version = "0.1.0"

// managerSender forwards agent commands to a session manager created after
// the agent.
type managerSender struct {
	m *session.Manager
}

func (s *managerSender) Send(cmd session.Command) error {
	return s.m.Send(cmd)
}

func main() {
	cfg := config.ClientFromEnv()

	flag.StringVar(&cfg.ServerURL, "url", cfg.ServerURL, "Session endpoint base URL (LUDO_SERVER_URL)")
	flag.StringVar(&cfg.GameCode, "game", cfg.GameCode, "Game code to join (LUDO_GAME_CODE)")
	flag.StringVar(&cfg.Token, "token", cfg.Token, "Session token (LUDO_TOKEN)")
	flag.StringVar(&cfg.PlayerID, "player", cfg.PlayerID, "Player ID to play for, default the token subject (LUDO_PLAYER_ID)")
	flag.StringVar(&cfg.TuningFile, "tuning", cfg.TuningFile, "Heuristic weights JSON file (LUDO_TUNING)")
	flag.IntVar(&cfg.MaxAttempts, "max-reconnects", cfg.MaxAttempts, "Reconnect attempts before giving up, at least 1 (LUDO_MAX_RECONNECTS)")
	flag.DurationVar(&cfg.ActionDelay, "delay", cfg.ActionDelay, "Pause before each action (LUDO_ACTION_DELAY)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (LUDO_LOG_LEVEL)")
	start := flag.Bool("start", false, "Send START_GAME once authenticated")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("Ludo Bot v%s\n", version)
		os.Exit(0)
	}

	log := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	info, err := config.CheckToken(cfg.Token, time.Now())
	if err != nil {
		log.Warn().Err(err).Msg("session token is expired, the server will likely reject it")
	} else if !info.ExpiresAt.IsZero() {
		log.Debug().Time("expires_at", info.ExpiresAt).Msg("session token")
	}
	if cfg.PlayerID == "" {
		cfg.PlayerID = info.Subject
	}

	weights := engine.DefaultWeights()
	if cfg.TuningFile != "" {
		tuning, err := config.LoadTuning(cfg.TuningFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.TuningFile).Msg("failed to load tuning")
		}
		weights = tuning.Weights
	}
	eng := engine.NewEngine(engine.EngineOptions{Weights: &weights})

	sender := &managerSender{}
	agent, err := autoplay.NewAgent(autoplay.Options{
		PlayerID: cfg.PlayerID,
		Engine:   eng,
		Sender:   sender,
		Logger:   &log,
		Delay:    cfg.ActionDelay,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create agent (set -player when the token has no subject)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	var observer session.Observer = agent
	if *start {
		observer = startOnConnect(agent, sender)
	}
	observer = stopOnTerminal(observer, done)

	mgr := session.NewManager(session.Options{
		BaseURL:     cfg.ServerURL,
		Observer:    observer,
		Logger:      &log,
		MaxAttempts: cfg.MaxAttempts,
	})
	sender.m = mgr

	log.Info().
		Str("version", version).
		Str("game", cfg.GameCode).
		Str("player", cfg.PlayerID).
		Str("endpoint", session.Endpoint(cfg.ServerURL, cfg.GameCode)).
		Msg("joining session")
	mgr.SetCredentials(cfg.GameCode, cfg.Token)

	go func() {
		if err := agent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("agent stopped")
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("leaving session")
		mgr.Leave()
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Msg("session ended")
		} else {
			log.Info().Msg("session ended")
		}
	}
	agent.Stop()
	mgr.Close()
}

// startOnConnect sends START_GAME the first time the session authenticates.
func startOnConnect(next session.Observer, sender *managerSender) session.Observer {
	started := false
	return session.ObserverFuncs{
		OnStatus: func(s session.Status) {
			next.StatusChanged(s)
			if s == session.StatusConnected && !started {
				started = true
				// observers must not call back into the manager synchronously
				go sender.Send(session.StartGame())
			}
		},
		OnSnapshot: next.SnapshotReceived,
		OnError:    next.ErrorReported,
	}
}

// stopOnTerminal reports on done once the session stops for good: the
// manager only settles in Disconnected when it will not reconnect by itself.
func stopOnTerminal(next session.Observer, done chan<- error) session.Observer {
	var last error
	finished := false
	finish := func(err error) {
		if !finished {
			finished = true
			done <- err
		}
	}
	return session.ObserverFuncs{
		OnStatus: func(s session.Status) {
			next.StatusChanged(s)
			if s == session.StatusDisconnected {
				finish(last)
			}
		},
		OnSnapshot: func(s engine.Snapshot) {
			next.SnapshotReceived(s)
			if s.Status == engine.StatusFinished {
				finish(nil)
			}
		},
		OnError: func(err error) {
			next.ErrorReported(err)
			var serverErr *session.ServerError
			if !errors.As(err, &serverErr) {
				last = err
			}
		},
	}
}
