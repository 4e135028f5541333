package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTuningKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"weights": {"capture": 150, "threatened": 50}}`), 0o644))

	tuning, err := ReadTuning(path)
	require.NoError(t, err)

	want := engine.DefaultWeights()
	want.Capture = 150
	want.Threatened = 50
	assert.Equal(t, want, tuning.Weights)
}

func TestReadTuningErrors(t *testing.T) {
	_, err := ReadTuning(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"weights":`), 0o644))
	_, err = ReadTuning(path)
	assert.ErrorContains(t, err, "unmarshal")
}

func TestClientFromEnv(t *testing.T) {
	t.Setenv("LUDO_SERVER_URL", "wss://example.test/ws/game")
	t.Setenv("LUDO_GAME_CODE", "ABCD")
	t.Setenv("LUDO_TOKEN", "secret")
	t.Setenv("LUDO_MAX_RECONNECTS", "3")
	t.Setenv("LUDO_ACTION_DELAY", "2s")
	t.Setenv("LUDO_LOG_LEVEL", "")

	c := ClientFromEnv()
	assert.Equal(t, "wss://example.test/ws/game", c.ServerURL)
	assert.Equal(t, "ABCD", c.GameCode)
	assert.Equal(t, 3, c.MaxAttempts)
	assert.Equal(t, 2*time.Second, c.ActionDelay)
	assert.Equal(t, "info", c.LogLevel)
	assert.NoError(t, c.Validate())

	c.Token = ""
	assert.ErrorContains(t, c.Validate(), "token")
}

func TestClientFromEnvDefaults(t *testing.T) {
	t.Setenv("LUDO_MAX_RECONNECTS", "lots")
	t.Setenv("LUDO_ACTION_DELAY", "")

	c := ClientFromEnv()
	assert.Equal(t, 5, c.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, c.ActionDelay)
}

func TestClientValidateMaxReconnects(t *testing.T) {
	c := Client{ServerURL: "ws://localhost:8080/ws/game", GameCode: "ABCD", Token: "secret", MaxAttempts: 1}
	assert.NoError(t, c.Validate())

	for _, n := range []int{0, -2} {
		c.MaxAttempts = n
		assert.ErrorContains(t, c.Validate(), "max reconnects", "MaxAttempts=%d", n)
	}
}
