// internal/server/handlers/websocket.go

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"tweetscope/internal/service/pipeline"
	"tweetscope/internal/service/report"
)

// Stream message types
const (
	MessageProgress = "progress"
	MessageReport   = "report"
	MessageError    = "error"
)

// StreamMessage is one frame sent to an analyze stream client
type StreamMessage struct {
	Type   string          `json:"type"`
	Event  *pipeline.Event `json:"event,omitempty"`
	Report *report.Result  `json:"report,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamClient is one connected analyze stream
type streamClient struct {
	conn   *websocket.Conn
	send   chan []byte
	config WebSocketConfig
	logger *log.Logger
	done   chan struct{}
	once   sync.Once
}

// AnalyzeWebSocketHandler runs one analysis per connection and streams its progress
func AnalyzeWebSocketHandler(analyzer Analyzer, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseAnalyzeQuery(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Handle) == "" {
			http.Error(w, "Missing handle", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("failed to upgrade to WebSocket", "error", err)
			return
		}

		client := &streamClient{
			conn:   conn,
			send:   make(chan []byte, 64),
			config: DefaultWebSocketConfig(),
			logger: logger,
			done:   make(chan struct{}),
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go client.writePump()
		go client.readPump(cancel)

		logger.Info("analyze stream opened", "handle", req.Handle, "remote", r.RemoteAddr)

		res, err := analyzer.RunWithEvents(ctx, req.pipelineRequest(), func(e pipeline.Event) error {
			client.push(ctx, StreamMessage{Type: MessageProgress, Event: &e})
			return nil
		})
		if err != nil {
			client.push(ctx, StreamMessage{Type: MessageError, Error: err.Error()})
		} else {
			client.push(ctx, StreamMessage{Type: MessageReport, Report: res})
		}

		// writePump sends the close frame once the queue is drained
		close(client.send)
		<-client.done
	}
}

// push queues one message unless the client went away
func (c *streamClient) push(ctx context.Context, msg StreamMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal stream message", "type", msg.Type, "error", err)
		return
	}

	select {
	case c.send <- data:
	case <-ctx.Done():
	case <-c.done:
	}
}

// readPump watches the connection and cancels the run when the client leaves
func (c *streamClient) readPump(cancel context.CancelFunc) {
	defer cancel()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}

// writePump pumps queued messages to the WebSocket connection
func (c *streamClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeConnection closes the WebSocket connection once
func (c *streamClient) closeConnection() {
	c.once.Do(func() {
		c.conn.Close()
		close(c.done)
	})
}
