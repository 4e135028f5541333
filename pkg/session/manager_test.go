package session

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	endpoint string
	handler  Handler
	sent     []Command
	closed   bool
	code     int
	reason   string
}

func (c *fakeConn) Send(data []byte) error {
	if c.closed {
		return ErrTransportClosed
	}
	var cmd struct {
		Action  string          `json:"action"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &cmd); err != nil {
		return err
	}
	c.sent = append(c.sent, Command{Action: cmd.Action, Payload: cmd.Payload})
	return nil
}

func (c *fakeConn) Close(code int, reason string) error {
	c.closed, c.code, c.reason = true, code, reason
	return nil
}

func (c *fakeConn) actions() []string {
	out := make([]string, len(c.sent))
	for i, cmd := range c.sent {
		out[i] = cmd.Action
	}
	return out
}

func (c *fakeConn) deliver(t *testing.T, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	c.handler.OnMessage(data)
}

type fakeDialer struct {
	conns []*fakeConn
}

func (d *fakeDialer) Dial(endpoint string, h Handler) Conn {
	c := &fakeConn{endpoint: endpoint, handler: h}
	d.conns = append(d.conns, c)
	return c
}

func (d *fakeDialer) last() *fakeConn {
	return d.conns[len(d.conns)-1]
}

type fakeTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{delay: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

type recorder struct {
	statuses  []Status
	snapshots []engine.Snapshot
	errs      []error
}

func (r *recorder) StatusChanged(s Status)             { r.statuses = append(r.statuses, s) }
func (r *recorder) SnapshotReceived(s engine.Snapshot) { r.snapshots = append(r.snapshots, s) }
func (r *recorder) ErrorReported(err error)            { r.errs = append(r.errs, err) }

type harness struct {
	m      *Manager
	dialer *fakeDialer
	clock  *fakeClock
	rec    *recorder
}

func newHarness() *harness {
	h := &harness{dialer: &fakeDialer{}, clock: &fakeClock{}, rec: &recorder{}}
	h.m = NewManager(Options{
		BaseURL:  "ws://example.test/ws/game/",
		Dialer:   h.dialer,
		Clock:    h.clock,
		Observer: h.rec,
	})
	return h
}

// connected dials, opens and authenticates a session.
func (h *harness) connected(t *testing.T) *fakeConn {
	t.Helper()
	h.m.SetCredentials("ABCD", "tok-1")
	c := h.dialer.last()
	c.handler.OnOpen()
	c.deliver(t, TypeAuthSuccess, nil)
	require.Equal(t, StatusConnected, h.m.Status())
	return c
}

func snapshotPayload(dice *int) engine.Snapshot {
	s := engine.NewSnapshot(
		engine.Player{ID: "u1", Name: "Ann", Color: engine.Green},
		engine.Player{ID: "u2", Name: "Bob", Color: engine.Yellow},
	)
	s.Status = engine.StatusPlaying
	s.DiceValue = dice
	return s
}

func TestOpenSendsAuthFirst(t *testing.T) {
	h := newHarness()
	assert.Equal(t, StatusDisconnected, h.m.Status())

	h.m.SetCredentials("ABCD", "tok-1")
	require.Len(t, h.dialer.conns, 1)
	c := h.dialer.last()
	assert.Equal(t, "ws://example.test/ws/game/ABCD", c.endpoint)
	assert.NotContains(t, c.endpoint, "tok-1")
	assert.Equal(t, StatusConnecting, h.m.Status())

	assert.ErrorIs(t, h.m.Send(RollDice()), ErrNotAuthenticated)
	assert.Empty(t, c.sent)

	c.handler.OnOpen()
	require.Equal(t, []string{ActionAuth}, c.actions())
	assert.JSONEq(t, `{"token":"tok-1"}`, string(c.sent[0].Payload.(json.RawMessage)))

	assert.ErrorIs(t, h.m.Send(RollDice()), ErrNotAuthenticated)

	c.deliver(t, TypeAuthSuccess, nil)
	assert.Equal(t, StatusConnected, h.m.Status())
	require.NoError(t, h.m.Send(MovePiece(2)))
	assert.Equal(t, []string{ActionAuth, ActionMovePiece}, c.actions())
	assert.JSONEq(t, `{"pieceId":2}`, string(c.sent[1].Payload.(json.RawMessage)))

	assert.Equal(t, []Status{StatusConnecting, StatusConnected}, h.rec.statuses)
}

func TestMissingCredentialsStayIdle(t *testing.T) {
	h := newHarness()
	h.m.SetCredentials("ABCD", "")
	assert.Empty(t, h.dialer.conns)
	assert.Equal(t, StatusDisconnected, h.m.Status())
	assert.ErrorIs(t, h.m.Send(RollDice()), ErrNoCredentials)
}

func TestBackoffSequence(t *testing.T) {
	h := newHarness()
	h.m.SetCredentials("ABCD", "tok-1")

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second}
	for i, delay := range want {
		h.dialer.last().handler.OnClose(CloseAbnormal, "", nil)
		require.Len(t, h.clock.timers, i+1, "closure %d", i+1)
		assert.Equal(t, delay, h.clock.timers[i].delay, "attempt %d", i+1)
		assert.Equal(t, StatusReconnecting, h.m.Status())
		assert.Equal(t, i+1, h.m.Attempt())

		h.clock.timers[i].f()
		require.Len(t, h.dialer.conns, i+2)
		assert.Equal(t, StatusConnecting, h.m.Status())
	}

	h.dialer.last().handler.OnClose(CloseAbnormal, "", nil)
	assert.Len(t, h.clock.timers, 5, "no timer after the last attempt")
	assert.Len(t, h.dialer.conns, 6)
	assert.Equal(t, StatusDisconnected, h.m.Status())

	err := h.m.LastError()
	require.ErrorIs(t, err, ErrRetriesExhausted)
	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 5, exhausted.Attempts)
	assert.Equal(t, DiagAbnormalClosure, exhausted.Diagnosis)
}

func TestAuthSuccessResetsAttempts(t *testing.T) {
	h := newHarness()
	h.m.SetCredentials("ABCD", "tok-1")
	h.dialer.last().handler.OnClose(CloseAbnormal, "", nil)
	h.clock.timers[0].f()
	h.dialer.last().handler.OnClose(CloseAbnormal, "", nil)
	require.Equal(t, 4*time.Second, h.clock.timers[1].delay)
	h.clock.timers[1].f()

	c := h.dialer.last()
	c.handler.OnOpen()
	c.deliver(t, TypeAuthSuccess, nil)
	assert.Zero(t, h.m.Attempt())

	c.handler.OnClose(CloseAbnormal, "", nil)
	require.Len(t, h.clock.timers, 3)
	assert.Equal(t, 2*time.Second, h.clock.timers[2].delay)
}

func TestAuthFailureNeverReconnects(t *testing.T) {
	h := newHarness()
	h.m.SetCredentials("ABCD", "bad")
	c := h.dialer.last()
	c.handler.OnOpen()
	c.deliver(t, TypeAuthFailure, map[string]string{"message": "token expired"})

	assert.Equal(t, StatusDisconnected, h.m.Status())
	assert.True(t, c.closed)
	assert.Equal(t, CloseAuthRejected, c.code)
	assert.Zero(t, h.m.Attempt())

	var authErr *AuthError
	require.True(t, errors.As(h.m.LastError(), &authErr))
	assert.Equal(t, "token expired", authErr.Reason)
	assert.ErrorIs(t, h.m.LastError(), ErrAuthRejected)

	// the peer's close of the rejected transport is stale
	c.handler.OnClose(CloseAuthRejected, "token expired", nil)
	assert.Empty(t, h.clock.timers)

	assert.ErrorIs(t, h.m.Send(RollDice()), ErrAuthRejected)
	assert.Len(t, h.dialer.conns, 1)
}

func TestAuthRejectedCloseCode(t *testing.T) {
	h := newHarness()
	h.m.SetCredentials("ABCD", "bad")
	h.dialer.last().handler.OnClose(CloseAuthRejected, "", nil)

	assert.Equal(t, StatusDisconnected, h.m.Status())
	assert.Empty(t, h.clock.timers)
	assert.ErrorIs(t, h.m.LastError(), ErrAuthRejected)
}

func TestCleanServerCloseDoesNotReconnect(t *testing.T) {
	h := newHarness()
	c := h.connected(t)
	c.handler.OnClose(CloseNormal, "", nil)

	assert.Equal(t, StatusDisconnected, h.m.Status())
	assert.Empty(t, h.clock.timers)
	assert.NoError(t, h.m.LastError())
}

func TestLeaveCancelsPendingTimer(t *testing.T) {
	h := newHarness()
	c := h.connected(t)
	c.handler.OnClose(CloseAbnormal, "", nil)
	require.Len(t, h.clock.timers, 1)

	h.m.Leave()
	assert.True(t, h.clock.timers[0].stopped)
	assert.Equal(t, StatusDisconnected, h.m.Status())

	// a timer that already fired before Stop took effect
	h.clock.timers[0].f()
	assert.Len(t, h.dialer.conns, 1)
	assert.ErrorIs(t, h.m.Send(RollDice()), ErrLeft)
	assert.Len(t, h.dialer.conns, 1)
}

func TestLeaveWhileConnected(t *testing.T) {
	h := newHarness()
	c := h.connected(t)

	h.m.Leave()
	assert.Equal(t, []string{ActionAuth, ActionLeaveGame}, c.actions())
	assert.True(t, c.closed)
	assert.Equal(t, CloseNormal, c.code)

	c.handler.OnClose(CloseNormal, "", nil)
	c.handler.OnClose(CloseAbnormal, "", nil)
	assert.Empty(t, h.clock.timers)
	assert.Equal(t, StatusDisconnected, h.m.Status())
}

func TestStateUpdatesInOrderAndRetained(t *testing.T) {
	h := newHarness()
	c := h.connected(t)

	three, five := 3, 5
	c.deliver(t, TypeGameStateUpdate, snapshotPayload(&three))
	c.deliver(t, TypeGameStateUpdate, snapshotPayload(&five))

	require.Len(t, h.rec.snapshots, 2)
	assert.Equal(t, 3, *h.rec.snapshots[0].DiceValue)
	assert.Equal(t, 5, *h.rec.snapshots[1].DiceValue)

	c.handler.OnClose(CloseAbnormal, "", nil)
	snap, ok := h.m.Snapshot()
	require.True(t, ok, "snapshot survives a reconnect")
	assert.Equal(t, 5, *snap.DiceValue)
}

func TestInvalidMessagesIgnored(t *testing.T) {
	h := newHarness()
	c := h.connected(t)

	c.deliver(t, "CHAT_MESSAGE", map[string]string{"text": "hi"})
	c.handler.OnMessage([]byte("not json"))
	c.deliver(t, TypeGameStateUpdate, map[string]any{"players": "nope"})

	assert.Equal(t, StatusConnected, h.m.Status())
	assert.NoError(t, h.m.LastError())
	assert.Empty(t, h.rec.snapshots)
	assert.Empty(t, h.rec.errs)
}

func TestServerErrorNormalized(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"message field", map[string]string{"message": "Not your turn"}, "Not your turn"},
		{"plain string", "Room is full", "Room is full"},
		{"structured message", map[string]any{"message": map[string]int{"code": 7}}, `{"code":7}`},
		{"error field", map[string]string{"error": "boom"}, "boom"},
		{"no payload", nil, "unknown server error"},
		{"array", []int{1, 2}, "[1,2]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			c := h.connected(t)
			c.deliver(t, TypeError, tc.payload)

			var srvErr *ServerError
			require.True(t, errors.As(h.m.LastError(), &srvErr))
			assert.Equal(t, tc.want, srvErr.Message)
			assert.Equal(t, StatusConnected, h.m.Status())
			assert.Len(t, h.rec.errs, 1)
		})
	}
}

func TestSendWhileDisconnectedReconnects(t *testing.T) {
	h := newHarness()
	c := h.connected(t)
	c.handler.OnClose(CloseAbnormal, "", nil)
	require.Len(t, h.clock.timers, 1)

	err := h.m.Send(RollDice())
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.True(t, h.clock.timers[0].stopped, "pending timer cancelled before dialing")
	require.Len(t, h.dialer.conns, 2)
	assert.Equal(t, StatusConnecting, h.m.Status())

	next := h.dialer.last()
	next.handler.OnOpen()
	next.deliver(t, TypeAuthSuccess, nil)
	// the dropped command is not replayed
	assert.Equal(t, []string{ActionAuth}, next.actions())
}

func TestSendAfterExhaustionReconnects(t *testing.T) {
	h := newHarness()
	h.m.SetCredentials("ABCD", "tok-1")
	for i := 0; i < 5; i++ {
		h.dialer.last().handler.OnClose(CloseAbnormal, "", nil)
		h.clock.timers[i].f()
	}
	h.dialer.last().handler.OnClose(CloseAbnormal, "", nil)
	require.Equal(t, StatusDisconnected, h.m.Status())

	assert.ErrorIs(t, h.m.Send(RollDice()), ErrNotConnected)
	assert.Len(t, h.dialer.conns, 7)
}

func TestGameArchivedIsTerminal(t *testing.T) {
	h := newHarness()
	c := h.connected(t)

	s := snapshotPayload(nil)
	s.Status = engine.StatusFinished
	s.Winner = "u1"
	c.deliver(t, TypeGameArchived, s)

	assert.Equal(t, StatusDisconnected, h.m.Status())
	assert.True(t, c.closed)
	assert.Equal(t, CloseNormal, c.code)
	snap, ok := h.m.Snapshot()
	require.True(t, ok)
	assert.Equal(t, engine.StatusFinished, snap.Status)

	c.handler.OnClose(CloseAbnormal, "", nil)
	assert.Empty(t, h.clock.timers)
	assert.ErrorIs(t, h.m.Send(RollDice()), ErrSessionOver)
	assert.Len(t, h.dialer.conns, 1)
}

func TestNewCredentialsTearDownPrevious(t *testing.T) {
	h := newHarness()
	first := h.connected(t)
	first.handler.OnClose(CloseAbnormal, "", nil)
	require.Len(t, h.clock.timers, 1)

	h.m.SetCredentials("WXYZ", "tok-2")
	assert.True(t, h.clock.timers[0].stopped)
	require.Len(t, h.dialer.conns, 2)
	second := h.dialer.last()
	assert.Equal(t, "ws://example.test/ws/game/WXYZ", second.endpoint)

	// events from the first transport no longer count
	first.handler.OnOpen()
	first.deliver(t, TypeAuthSuccess, nil)
	assert.Equal(t, StatusConnecting, h.m.Status())

	second.handler.OnOpen()
	assert.Equal(t, []string{ActionAuth}, second.actions())
	assert.JSONEq(t, `{"token":"tok-2"}`, string(second.sent[0].Payload.(json.RawMessage)))
}

func TestCloseTearsDown(t *testing.T) {
	h := newHarness()
	c := h.connected(t)
	h.m.Close()

	assert.True(t, c.closed)
	assert.Equal(t, CloseNormal, c.code)
	assert.Equal(t, StatusDisconnected, h.m.Status())
	assert.ErrorIs(t, h.m.Send(RollDice()), ErrClosed)
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "wss://h/ws/game/AB%20CD", Endpoint("wss://h/ws/game", "AB CD"))
	assert.Equal(t, "ws://h/g/X1", Endpoint("ws://h/g///", "X1"))
}

func TestObserverReadsManagerDuringConcurrentEvent(t *testing.T) {
	dialer := &fakeDialer{}
	clock := &fakeClock{}
	entered := make(chan struct{})
	release := make(chan struct{})

	var m *Manager
	var seen []Status
	first := true
	m = NewManager(Options{
		BaseURL: "ws://example.test/ws/game",
		Dialer:  dialer,
		Clock:   clock,
		Observer: ObserverFuncs{
			OnStatus: func(Status) {
				if first {
					first = false
					close(entered)
					<-release
				}
				seen = append(seen, m.Status())
				m.Snapshot()
				m.LastError()
			},
		},
	})

	opened := make(chan struct{})
	go func() {
		m.SetCredentials("ABCD", "tok-1")
		close(opened)
	}()
	<-entered

	// a transport failure arrives while the first callback is still running
	closed := make(chan struct{})
	go func() {
		dialer.last().handler.OnClose(CloseAbnormal, "", errors.New("connection reset"))
		close(closed)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	for _, ch := range []chan struct{}{opened, closed} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatal("manager deadlocked while an observer read its state")
		}
	}

	assert.Equal(t, []Status{StatusConnecting, StatusReconnecting}, seen)
	assert.Equal(t, StatusReconnecting, m.Status())
	assert.Equal(t, 1, m.Attempt())
	require.Len(t, clock.timers, 1)
}
