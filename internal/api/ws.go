package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jacopomaroli/roombutler/internal/bus"
)

const (
	writeTimeout = 10 * time.Second
)

// whitelist is the set of push message types republished on the bus.
// Anything else coming over the wire is dropped.
var whitelist = map[string]bool{
	bus.EventPong:     true,
	bus.EventRoom:     true,
	bus.EventTraining: true,
}

// PushChannel maintains the persistent connection to the server and turns
// inbound frames into bus events. On connection loss it publishes
// "disconnected" and reconnects with doubling backoff.
type PushChannel struct {
	url       string
	bus       *bus.Bus
	logger    *zap.SugaredLogger
	baseDelay time.Duration
	maxDelay  time.Duration

	dial func(ctx context.Context, url string) (*websocket.Conn, error)
}

// NewPushChannel creates a channel for the given websocket URL
// (e.g. "ws://127.0.0.1:8000/ws").
func NewPushChannel(url string, b *bus.Bus, baseDelay, maxDelay time.Duration, logger *zap.SugaredLogger) *PushChannel {
	return &PushChannel{
		url:       url,
		bus:       b,
		logger:    logger,
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
		dial: func(ctx context.Context, url string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			return conn, err
		},
	}
}

// Run connects and keeps reading until ctx is cancelled. It blocks; run it
// on its own goroutine.
func (p *PushChannel) Run(ctx context.Context) {
	delay := p.baseDelay
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := p.dial(ctx, p.url)
		if err != nil {
			p.logger.Warnw("push dial failed", "err", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, p.maxDelay)
			continue
		}

		delay = p.baseDelay
		p.logger.Infow("push channel open", "url", p.url)

		if err := p.sendPing(conn); err != nil {
			p.logger.Warnw("push ping failed", "err", err)
			conn.Close()
			p.bus.Publish(bus.EventDisconnected)
			continue
		}

		p.readLoop(ctx, conn)
		conn.Close()
		p.bus.Publish(bus.EventDisconnected)
	}
}

// sendPing announces the session to the server; the server answers with a
// "pong" push.
func (p *PushChannel) sendPing(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(PushMessage{Type: "ping"})
}

func (p *PushChannel) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			p.logger.Infow("push channel closed", "err", err)
			return
		}
		p.handle(data)
	}
}

// handle parses one frame. Malformed frames fail closed for that message
// only; the connection stays up.
func (p *PushChannel) handle(data []byte) {
	var msg PushMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		p.logger.Debugw("dropping malformed push frame", "err", err)
		return
	}
	if !whitelist[msg.Type] {
		p.logger.Debugw("dropping non-whitelisted push", "type", msg.Type)
		return
	}
	if err := p.bus.Publish(msg.Type, msg.Payload); err != nil {
		p.logger.Warnw("push handler failed", "type", msg.Type, "err", err)
	}
}
