package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Conn is the write side of a live connection.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// client pumps queued frames to a Conn from a single goroutine.
type client struct {
	conn   Conn
	queue  chan Frame
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func newClient(conn Conn, buffer int, logger *zap.Logger) *client {
	if buffer <= 0 {
		buffer = 16
	}
	c := &client{
		conn:   conn,
		queue:  make(chan Frame, buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
	go c.writeLoop()
	return c
}

// enqueue never blocks; a full or closed queue drops the frame.
func (c *client) enqueue(f Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.queue <- f:
		return true
	case <-c.done:
		return false
	default:
		c.logger.Debug("live frame dropped, send queue full", zap.String("type", f.Type))
		return false
	}
}

func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case f := <-c.queue:
			if err := c.conn.WriteJSON(f); err != nil {
				c.logger.Debug("live write failed", zap.Error(err))
				c.close()
				return
			}
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
