package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // analysis is read-only and unauthenticated
	},
}

// WSMessage is a WebSocket request.
type WSMessage struct {
	Type    string          `json:"type"`    // "path", "interaction", "move", "tutor", "ping"
	ID      string          `json:"id"`      // Request ID for correlating responses
	Payload json.RawMessage `json:"payload"` // Type-specific payload
}

// WSResponse is a WebSocket response.
type WSResponse struct {
	Type    string      `json:"type"`              // "result", "error", "pong"
	ID      string      `json:"id,omitempty"`      // Request ID
	Payload interface{} `json:"payload,omitempty"` // Response data
	Error   string      `json:"error,omitempty"`   // Error message if any
	Code    string      `json:"code,omitempty"`    // Error code if any
}

// WSClient is one connected analysis client.
type WSClient struct {
	conn     *websocket.Conn
	handlers *Handlers
	sendChan chan WSResponse
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// WebSocket handles WebSocket connections for real-time analysis.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &WSClient{
		conn:     conn,
		handlers: h,
		sendChan: make(chan WSResponse, 256),
		limiter:  rate.NewLimiter(h.wsRate, h.wsBurst),
		log:      h.log.With().Str("conn_id", uuid.NewString()).Str("remote", r.RemoteAddr).Logger(),
	}
	client.log.Debug().Msg("websocket connected")
	go client.writePump()
	client.readPump()
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		close(c.sendChan)
		c.log.Debug().Msg("websocket disconnected")
	}()
	c.conn.SetReadLimit(wsMaxMessage)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}
		if !c.limiter.Allow() {
			c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "too many requests", Code: "RATE_LIMITED"}
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *WSClient) handleMessage(msg WSMessage) {
	h := c.handlers
	switch msg.Type {
	case "path":
		wsDispatch(c, msg, h.path)
	case "interaction":
		wsDispatch(c, msg, h.interaction)
	case "move":
		wsDispatch(c, msg, h.moves)
	case "tutor":
		wsDispatch(c, msg, h.tutorMove)
	case "ping":
		c.sendChan <- WSResponse{Type: "pong", ID: msg.ID}
	default:
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "unknown message type", Code: "UNKNOWN_TYPE"}
	}
}

// wsDispatch decodes the payload of msg, runs fn in a pool slot and queues
// the reply.
func wsDispatch[Req any, Resp any](c *WSClient, msg WSMessage, fn func(*Req) (*Resp, *apiError)) {
	var req Req
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "invalid payload", Code: "INVALID_JSON"}
		return
	}

	if pool := c.handlers.pool; pool != nil {
		if !pool.TryAcquire() {
			c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "server busy", Code: "SERVER_BUSY"}
			return
		}
		defer pool.Release()
	}

	resp, apiErr := fn(&req)
	if apiErr != nil {
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: apiErr.msg, Code: apiErr.code}
		return
	}
	c.sendChan <- WSResponse{Type: "result", ID: msg.ID, Payload: resp}
}
