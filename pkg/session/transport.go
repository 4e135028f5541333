package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	defaultPingPeriod  = (pongWait * 9) / 10
	defaultDialTimeout = 15 * time.Second
)

// Handler receives the events of one transport. Callbacks arrive from the
// transport's own goroutine and never from inside Dial, Send or Close.
type Handler interface {
	OnOpen()
	OnMessage(data []byte)
	OnClose(code int, reason string, err error)
}

// Conn is a transport handle. It may be closed before it ever opens.
type Conn interface {
	Send(data []byte) error
	Close(code int, reason string) error
}

// Dialer opens transports. Dial returns at once; the outcome is reported
// through h.
type Dialer interface {
	Dial(endpoint string, h Handler) Conn
}

// WebsocketDialer dials the session endpoint with gorilla/websocket.
type WebsocketDialer struct {
	Dialer     *websocket.Dialer
	Header     http.Header
	PingPeriod time.Duration
}

func (d *WebsocketDialer) Dial(endpoint string, h Handler) Conn {
	ctx, cancel := context.WithCancel(context.Background())
	c := &wsConn{cancel: cancel, done: make(chan struct{})}
	go c.run(ctx, d, endpoint, h)
	return c
}

type wsConn struct {
	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool
	cancel context.CancelFunc
	done   chan struct{}
}

func (c *wsConn) run(ctx context.Context, d *WebsocketDialer, endpoint string, h Handler) {
	defer close(c.done)

	dialer := d.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: defaultDialTimeout,
		}
	}

	ws, resp, err := dialer.DialContext(ctx, endpoint, d.Header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (HTTP %s)", err, resp.Status)
		}
		h.OnClose(CloseAbnormal, "", err)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		ws.Close()
		return
	}
	c.ws = ws
	c.mu.Unlock()

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	period := d.PingPeriod
	if period <= 0 {
		period = defaultPingPeriod
	}
	stop := make(chan struct{})
	defer close(stop)
	go c.ping(ws, period, stop)

	h.OnOpen()
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			code, reason := closeDetails(err)
			h.OnClose(code, reason, err)
			ws.Close()
			return
		}
		h.OnMessage(data)
	}
}

func (c *wsConn) ping(ws *websocket.Conn, period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *wsConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.ws == nil {
		return ErrTransportClosed
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.cancel()
	if c.ws == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(code, reason)
	err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	if cerr := c.ws.Close(); err == nil {
		err = cerr
	}
	return err
}

func closeDetails(err error) (int, string) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text
	}
	return CloseAbnormal, ""
}
