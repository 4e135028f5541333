// Package config loads heuristic tuning and client settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/engine"
)

// Tuning is the on-disk form of the move heuristic weights. Missing fields
// keep their default value.
type Tuning struct {
	Weights engine.Weights `json:"weights"`
}

var (
	tuning   *Tuning
	loadOnce sync.Once
	loadErr  error
)

// LoadTuning reads the tuning file once. Later calls return the first result.
func LoadTuning(path string) (*Tuning, error) {
	loadOnce.Do(func() {
		tuning, loadErr = ReadTuning(path)
	})
	return tuning, loadErr
}

// ReadTuning reads a tuning file without caching it.
func ReadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning: %w", err)
	}
	t := Tuning{Weights: engine.DefaultWeights()}
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tuning: %w", err)
	}
	return &t, nil
}

// Client holds the bot settings. Flags override the environment.
type Client struct {
	ServerURL   string        // LUDO_SERVER_URL, base of the session endpoint
	GameCode    string        // LUDO_GAME_CODE
	Token       string        // LUDO_TOKEN
	PlayerID    string        // LUDO_PLAYER_ID, seat the bot plays for
	TuningFile  string        // LUDO_TUNING
	MaxAttempts int           // LUDO_MAX_RECONNECTS
	ActionDelay time.Duration // LUDO_ACTION_DELAY
	LogLevel    string        // LUDO_LOG_LEVEL
}

// ClientFromEnv returns the settings found in the environment, with defaults.
func ClientFromEnv() Client {
	return Client{
		ServerURL:   getenv("LUDO_SERVER_URL", "ws://localhost:8080/ws/game"),
		GameCode:    os.Getenv("LUDO_GAME_CODE"),
		Token:       os.Getenv("LUDO_TOKEN"),
		PlayerID:    os.Getenv("LUDO_PLAYER_ID"),
		TuningFile:  os.Getenv("LUDO_TUNING"),
		MaxAttempts: getenvInt("LUDO_MAX_RECONNECTS", 5),
		ActionDelay: getenvDuration("LUDO_ACTION_DELAY", 500*time.Millisecond),
		LogLevel:    getenv("LUDO_LOG_LEVEL", "info"),
	}
}

// Validate reports missing required settings.
func (c Client) Validate() error {
	switch {
	case c.ServerURL == "":
		return fmt.Errorf("server URL is required")
	case c.GameCode == "":
		return fmt.Errorf("game code is required")
	case c.Token == "":
		return fmt.Errorf("token is required")
	case c.MaxAttempts < 1:
		return fmt.Errorf("max reconnects must be at least 1, got %d", c.MaxAttempts)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
