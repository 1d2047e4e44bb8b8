package remote

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/GriffinCanCode/webbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webbridge/internal/shared/codec"
)

// client is one connected page
type client struct {
	id    uuid.UUID
	tag   string // prefix of the sequences handed to bindings
	conn  *websocket.Conn
	ready atomic.Bool

	writeMu      sync.Mutex
	writeTimeout time.Duration
	metrics      *monitoring.Metrics

	calls     chan inbound
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, writeTimeout time.Duration, metrics *monitoring.Metrics) *client {
	id := uuid.New()
	return &client{
		id:           id,
		tag:          id.String()[:8],
		conn:         conn,
		writeTimeout: writeTimeout,
		metrics:      metrics,
		calls:        make(chan inbound, 64),
	}
}

// send writes one JSON message. Writes are serialized.
func (c *client) send(msgType string, msg any) error {
	data, err := codec.Marshal(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	c.metrics.RecordWSMessage("out", msgType)
	return nil
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "replaced"),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
}
