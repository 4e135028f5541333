// Package session keeps a client connected to an authoritative game session.
//
// A Manager is a finite state machine. Every input (credentials, transport
// events, the retry timer, commands from the caller) is an Event passed to
// Handle, and transitions never run concurrently. The Manager owns at most
// one transport and one pending reconnect timer at any time.
package session

import (
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/engine"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Status is the connection state reported to the caller.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = time.Second
)

// Observer is told about every change, in order. Callbacks run after the
// transition that caused them and may read the Manager, but must not call
// Handle, Send, Leave, SetCredentials or Close.
type Observer interface {
	StatusChanged(Status)
	SnapshotReceived(engine.Snapshot)
	ErrorReported(error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnStatus   func(Status)
	OnSnapshot func(engine.Snapshot)
	OnError    func(error)
}

func (o ObserverFuncs) StatusChanged(s Status) {
	if o.OnStatus != nil {
		o.OnStatus(s)
	}
}

func (o ObserverFuncs) SnapshotReceived(s engine.Snapshot) {
	if o.OnSnapshot != nil {
		o.OnSnapshot(s)
	}
}

func (o ObserverFuncs) ErrorReported(err error) {
	if o.OnError != nil {
		o.OnError(err)
	}
}

// Options configures a Manager. BaseURL is required.
type Options struct {
	BaseURL     string
	Dialer      Dialer
	Clock       Clock
	Observer    Observer
	Logger      *zerolog.Logger
	MaxAttempts int
	BaseDelay   time.Duration
}

// Event is an input to the state machine.
type Event interface {
	event()
}

// CredentialsChanged replaces the session identity. Empty values tear the
// session down.
type CredentialsChanged struct {
	GameCode string
	Token    string
}

// TransportOpened, TransportMessage and TransportClosed are reported by the
// transport with generation Gen. Events of an older generation are ignored.
type TransportOpened struct {
	Gen uint64
}

type TransportMessage struct {
	Gen  uint64
	Data []byte
}

type TransportClosed struct {
	Gen    uint64
	Code   int
	Reason string
	Err    error
}

// RetryTimerFired is posted by the reconnect timer with sequence Seq.
type RetryTimerFired struct {
	Seq uint64
}

// SendCommand asks for a command to be written to the peer.
type SendCommand struct {
	Command Command
}

// LeaveRequested leaves the game and closes the session cleanly.
type LeaveRequested struct{}

// CloseRequested closes the session without telling the peer.
type CloseRequested struct{}

func (CredentialsChanged) event() {}
func (TransportOpened) event()    {}
func (TransportMessage) event()   {}
func (TransportClosed) event()    {}
func (RetryTimerFired) event()    {}
func (SendCommand) event()        {}
func (LeaveRequested) event()     {}
func (CloseRequested) event()     {}

// Manager is the connection state machine for one client.
type Manager struct {
	baseURL     string
	dialer      Dialer
	clock       Clock
	observer    Observer
	log         zerolog.Logger
	maxAttempts int
	baseDelay   time.Duration

	deliver sync.Mutex // serializes Handle; held while notes run
	mu      sync.Mutex // guards the fields below
	notes   []func(Observer)

	gameCode string
	token    string

	status   Status
	snapshot *engine.Snapshot
	lastErr  error

	conn     Conn
	gen      uint64
	connID   string
	authed   bool
	timer    Timer
	timerSeq uint64
	attempt  int
	last     *ClosedError
	terminal error
}

// NewManager returns an idle Manager. Nothing is dialed until credentials
// are set.
func NewManager(opts Options) *Manager {
	m := &Manager{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		dialer:      opts.Dialer,
		clock:       opts.Clock,
		observer:    opts.Observer,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
	}
	if m.dialer == nil {
		m.dialer = &WebsocketDialer{}
	}
	if m.clock == nil {
		m.clock = realClock{}
	}
	if m.observer == nil {
		m.observer = ObserverFuncs{}
	}
	if m.maxAttempts <= 0 {
		m.maxAttempts = DefaultMaxAttempts
	}
	if m.baseDelay <= 0 {
		m.baseDelay = DefaultBaseDelay
	}
	if opts.Logger != nil {
		m.log = opts.Logger.With().Str("component", "session").Logger()
	} else {
		m.log = zerolog.Nop()
	}
	return m
}

// Endpoint returns the session URL for a game code.
func Endpoint(baseURL, gameCode string) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(gameCode)
}

// SetCredentials switches the Manager to a new game code and token.
func (m *Manager) SetCredentials(gameCode, token string) {
	m.Handle(CredentialsChanged{GameCode: gameCode, Token: token})
}

// Send writes a command to the peer. Commands are never queued: when the
// transport is down a reconnect is started and ErrNotConnected returned.
func (m *Manager) Send(cmd Command) error {
	return m.Handle(SendCommand{Command: cmd})
}

// Leave sends LEAVE_GAME and closes the session without reconnecting.
func (m *Manager) Leave() {
	m.Handle(LeaveRequested{})
}

// Close tears the session down without reconnecting.
func (m *Manager) Close() {
	m.Handle(CloseRequested{})
}

// Status returns the current connection status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Snapshot returns the last snapshot received. It survives reconnects.
func (m *Manager) Snapshot() (engine.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return engine.Snapshot{}, false
	}
	return m.snapshot.Clone(), true
}

// LastError returns the most recent failure, or nil.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Attempt returns the current reconnect attempt, 0 while healthy.
func (m *Manager) Attempt() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempt
}

// Handle applies one event. The returned error is only meaningful for
// SendCommand.
func (m *Manager) Handle(ev Event) error {
	// deliver is always taken before mu, so a callback may read the
	// Manager while another event waits to be handled.
	m.deliver.Lock()
	defer m.deliver.Unlock()

	m.mu.Lock()
	err := m.handle(ev)
	notes := m.notes
	m.notes = nil
	m.mu.Unlock()

	for _, n := range notes {
		n(m.observer)
	}
	return err
}

func (m *Manager) handle(ev Event) error {
	switch ev := ev.(type) {
	case CredentialsChanged:
		m.onCredentials(ev)
	case TransportOpened:
		if ev.Gen == m.gen && m.conn != nil {
			m.onOpen()
		}
	case TransportMessage:
		if ev.Gen == m.gen && m.conn != nil {
			m.onMessage(ev.Data)
		}
	case TransportClosed:
		if ev.Gen == m.gen && m.conn != nil {
			m.onClose(ev)
		}
	case RetryTimerFired:
		if ev.Seq == m.timerSeq && m.timer != nil {
			m.timer = nil
			m.connect()
		}
	case SendCommand:
		return m.onSend(ev.Command)
	case LeaveRequested:
		m.onLeave()
	case CloseRequested:
		m.teardown("closing")
		m.terminal = ErrClosed
		m.setStatus(StatusDisconnected)
	}
	return nil
}

func (m *Manager) onCredentials(ev CredentialsChanged) {
	m.teardown("credentials changed")
	if ev.GameCode != m.gameCode {
		m.snapshot = nil
	}
	m.gameCode, m.token = ev.GameCode, ev.Token
	m.terminal = nil
	m.lastErr = nil
	m.last = nil

	if m.gameCode == "" || m.token == "" {
		m.setStatus(StatusDisconnected)
		return
	}
	m.connect()
}

func (m *Manager) connect() {
	m.cancelTimer()
	m.dropConn(CloseNormal, "reconnecting")

	m.gen++
	m.connID = uuid.NewString()
	m.authed = false
	m.setStatus(StatusConnecting)

	endpoint := Endpoint(m.baseURL, m.gameCode)
	m.log.Debug().
		Str("conn_id", m.connID).
		Str("endpoint", endpoint).
		Int("attempt", m.attempt).
		Msg("dialing")
	m.conn = m.dialer.Dial(endpoint, &connHandler{m: m, gen: m.gen})
}

func (m *Manager) onOpen() {
	m.log.Debug().Str("conn_id", m.connID).Msg("transport open, authenticating")
	if err := m.write(Auth(m.token)); err != nil {
		m.log.Warn().Err(err).Str("conn_id", m.connID).Msg("sending AUTH failed")
	}
}

func (m *Manager) onMessage(data []byte) {
	msg, err := DecodeMessage(data)
	if err != nil {
		m.log.Warn().Err(err).Str("conn_id", m.connID).Msg("dropping malformed message")
		return
	}

	switch msg.Type {
	case TypeAuthSuccess:
		m.authed = true
		m.attempt = 0
		m.last = nil
		m.lastErr = nil
		m.log.Info().Str("conn_id", m.connID).Str("game", m.gameCode).Msg("authenticated")
		m.setStatus(StatusConnected)

	case TypeAuthFailure:
		m.fail(&AuthError{Reason: msg.Text()})
		m.cancelTimer()
		m.dropConn(CloseAuthRejected, "authentication failed")
		m.terminal = m.lastErr
		m.setStatus(StatusDisconnected)

	case TypeGameStateUpdate, TypeGameArchived:
		if !m.authed {
			m.log.Warn().Str("conn_id", m.connID).Str("type", msg.Type).Msg("ignoring state before authentication")
			return
		}
		snap, err := msg.Snapshot()
		if err != nil {
			m.log.Warn().Err(err).Str("conn_id", m.connID).Msg("dropping undecodable snapshot")
			return
		}
		m.publish(snap)
		if msg.Type == TypeGameArchived {
			m.log.Info().Str("conn_id", m.connID).Str("game", m.gameCode).Msg("game archived")
			m.cancelTimer()
			m.dropConn(CloseNormal, "game archived")
			m.terminal = ErrSessionOver
			m.setStatus(StatusDisconnected)
		}

	case TypeError:
		m.fail(&ServerError{Message: msg.Text()})

	default:
		m.log.Debug().Str("conn_id", m.connID).Str("type", msg.Type).Msg("ignoring unknown message type")
	}
}

func (m *Manager) onClose(ev TransportClosed) {
	m.conn = nil
	m.authed = false
	m.last = &ClosedError{Code: ev.Code, Reason: ev.Reason, Err: ev.Err}

	logEv := m.log.Info().Str("conn_id", m.connID).Int("code", ev.Code)
	if ev.Reason != "" {
		logEv = logEv.Str("reason", ev.Reason)
	}
	logEv.Msg("transport closed")

	switch ev.Code {
	case CloseAuthRejected:
		reason := ev.Reason
		if reason == "" {
			reason = "connection closed by server"
		}
		m.fail(&AuthError{Reason: reason})
		m.terminal = m.lastErr
		m.setStatus(StatusDisconnected)
	case CloseNormal:
		if ev.Reason != "" {
			m.fail(m.last)
		}
		m.setStatus(StatusDisconnected)
	default:
		m.scheduleReconnect()
	}
}

func (m *Manager) scheduleReconnect() {
	m.cancelTimer()

	if m.attempt >= m.maxAttempts {
		endpoint := Endpoint(m.baseURL, m.gameCode)
		err := &ExhaustedError{
			Attempts:  m.attempt,
			Diagnosis: Diagnose(endpoint, m.last),
			Last:      m.last,
		}
		m.log.Error().
			Err(err).
			Str("game", m.gameCode).
			Str("diagnosis", err.Diagnosis.String()).
			Msg("giving up on session")
		m.fail(err)
		m.setStatus(StatusDisconnected)
		return
	}

	m.attempt++
	delay := m.baseDelay << m.attempt
	m.log.Info().
		Int("attempt", m.attempt).
		Int("max_attempts", m.maxAttempts).
		Dur("delay", delay).
		Str("game", m.gameCode).
		Msg("reconnecting")

	m.timerSeq++
	seq := m.timerSeq
	m.timer = m.clock.AfterFunc(delay, func() {
		m.Handle(RetryTimerFired{Seq: seq})
	})
	m.setStatus(StatusReconnecting)
}

func (m *Manager) onSend(cmd Command) error {
	if m.terminal != nil {
		return m.terminal
	}
	if m.gameCode == "" || m.token == "" {
		return ErrNoCredentials
	}
	if m.conn == nil {
		m.log.Info().Str("action", cmd.Action).Msg("command while disconnected, reconnecting now")
		m.connect()
		return ErrNotConnected
	}
	if !m.authed {
		return ErrNotAuthenticated
	}
	return m.write(cmd)
}

func (m *Manager) onLeave() {
	if m.conn != nil && m.authed {
		if err := m.write(LeaveGame()); err != nil {
			m.log.Warn().Err(err).Str("conn_id", m.connID).Msg("sending LEAVE_GAME failed")
		}
	}
	m.teardown("leaving")
	m.terminal = ErrLeft
	m.setStatus(StatusDisconnected)
}

func (m *Manager) teardown(reason string) {
	m.cancelTimer()
	m.dropConn(CloseNormal, reason)
	m.attempt = 0
}

func (m *Manager) write(cmd Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return m.conn.Send(data)
}

// dropConn closes the current transport and makes its events stale.
func (m *Manager) dropConn(code int, reason string) {
	if m.conn == nil {
		return
	}
	if err := m.conn.Close(code, reason); err != nil {
		m.log.Debug().Err(err).Str("conn_id", m.connID).Msg("closing transport")
	}
	m.conn = nil
	m.authed = false
	m.gen++
}

func (m *Manager) cancelTimer() {
	if m.timer == nil {
		return
	}
	m.timer.Stop()
	m.timer = nil
	m.timerSeq++
}

func (m *Manager) setStatus(s Status) {
	if m.status == s {
		return
	}
	m.status = s
	m.notes = append(m.notes, func(o Observer) { o.StatusChanged(s) })
}

func (m *Manager) publish(s engine.Snapshot) {
	m.snapshot = &s
	c := s.Clone()
	m.notes = append(m.notes, func(o Observer) { o.SnapshotReceived(c) })
}

func (m *Manager) fail(err error) {
	m.lastErr = err
	m.notes = append(m.notes, func(o Observer) { o.ErrorReported(err) })
}

type connHandler struct {
	m   *Manager
	gen uint64
}

func (h *connHandler) OnOpen() {
	h.m.Handle(TransportOpened{Gen: h.gen})
}

func (h *connHandler) OnMessage(data []byte) {
	h.m.Handle(TransportMessage{Gen: h.gen, Data: data})
}

func (h *connHandler) OnClose(code int, reason string, err error) {
	h.m.Handle(TransportClosed{Gen: h.gen, Code: code, Reason: reason, Err: err})
}
