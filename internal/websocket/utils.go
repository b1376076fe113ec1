package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// Conn serialises writes so a reader loop and a push loop can share one
// gorilla connection.
type Conn struct {
	*websocket.Conn
	mu sync.Mutex
}

// Wrap wraps a raw connection.
func Wrap(conn *websocket.Conn) *Conn {
	return &Conn{Conn: conn}
}

// WriteTyped sends a payload with a write deadline.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(v)
}

// WriteEvent sends an event carrying data.
func (c *Conn) WriteEvent(ev Event, data interface{}) error {
	return c.WriteTyped(ResponsePayload{Event: ev, Data: data})
}

// WriteError sends an error event.
func (c *Conn) WriteError(code, msg string, fields map[string]string) error {
	return c.WriteTyped(ResponsePayload{Event: EventError, Code: code, Error: msg, Field: fields})
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func (c *Conn) ReadJSON(v interface{}) error {
	c.SetReadDeadline(time.Now().Add(readWait))
	return c.Conn.ReadJSON(v)
}
