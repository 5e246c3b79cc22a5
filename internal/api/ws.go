package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/stream"
)

const (
	wsSendBuffer = 256
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Frame is one message on the stream.
type Frame struct {
	Type    string `json:"type"` // data, subscribed, unsubscribed, error
	Channel string `json:"channel,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// clientMessage is a subscription request sent by the client.
type clientMessage struct {
	Action  string `json:"action"` // subscribe, unsubscribe
	Channel string `json:"channel"`
}

type wsClient struct {
	server *Server
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	subs   map[string]func()
	closed bool
}

// stream upgrades to a WebSocket and forwards hub publishes for every
// channel given as ?channel=... and any later subscribe messages.
func (s *Server) stream(c *gin.Context) {
	channels := c.QueryArray("channel")
	for _, ch := range channels {
		if err := s.validChannel(ch); err != "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err})
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &wsClient{
		server: s,
		conn:   conn,
		send:   make(chan []byte, wsSendBuffer),
		subs:   make(map[string]func()),
	}
	for _, ch := range channels {
		client.subscribe(ch)
	}

	go client.writePump()
	client.readPump()
}

// validChannel returns an error message for channels the hub never publishes.
func (s *Server) validChannel(channel string) string {
	if channel == stream.TickerAll {
		return ""
	}
	_, symbol, ok := stream.ParseChannel(channel)
	if !ok {
		return "invalid channel: " + channel
	}
	if _, found := s.market.Registry().Get(symbol); !found {
		return "symbol not found: " + symbol
	}
	return ""
}

func (cl *wsClient) subscribe(channel string) {
	cl.mu.Lock()
	if cl.closed {
		cl.mu.Unlock()
		return
	}
	if _, ok := cl.subs[channel]; ok {
		cl.mu.Unlock()
		return
	}
	cl.subs[channel] = cl.server.hub.Subscribe(channel, func(payload any) {
		cl.enqueue(Frame{Type: "data", Channel: channel, Data: payload})
	})
	cl.mu.Unlock()
	cl.enqueue(Frame{Type: "subscribed", Channel: channel})
}

func (cl *wsClient) unsubscribe(channel string) {
	cl.mu.Lock()
	off, ok := cl.subs[channel]
	delete(cl.subs, channel)
	cl.mu.Unlock()
	if ok {
		off()
		cl.enqueue(Frame{Type: "unsubscribed", Channel: channel})
	}
}

// enqueue never blocks the publisher: frames for a slow client are dropped.
func (cl *wsClient) enqueue(f Frame) {
	b, err := sonic.Marshal(f)
	if err != nil {
		cl.server.logger.Warn().Err(err).Str("channel", f.Channel).Msg("Failed to encode frame")
		return
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return
	}
	select {
	case cl.send <- b:
	default:
	}
}

func (cl *wsClient) close() {
	cl.mu.Lock()
	if cl.closed {
		cl.mu.Unlock()
		return
	}
	cl.closed = true
	subs := cl.subs
	cl.subs = nil
	close(cl.send)
	cl.mu.Unlock()

	for _, off := range subs {
		off()
	}
}

func (cl *wsClient) readPump() {
	defer func() {
		cl.close()
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(4096)
	cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			cl.enqueue(Frame{Type: "error", Error: "malformed message"})
			continue
		}
		if e := cl.server.validChannel(msg.Channel); e != "" {
			cl.enqueue(Frame{Type: "error", Channel: msg.Channel, Error: e})
			continue
		}
		switch msg.Action {
		case "subscribe":
			cl.subscribe(msg.Channel)
		case "unsubscribe":
			cl.unsubscribe(msg.Channel)
		default:
			cl.enqueue(Frame{Type: "error", Error: "unknown action: " + msg.Action})
		}
	}
}

func (cl *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
