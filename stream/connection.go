package stream

import (
	"github.com/livereload-universal/relay/model"
)

type Connection struct {
	receive   chan *model.Reload
	closed    chan struct{}
	transport string
}

func newConnection(transport string) *Connection {
	return &Connection{
		receive:   make(chan *model.Reload, 16),
		closed:    make(chan struct{}),
		transport: transport,
	}
}

func (conn *Connection) Receive() <-chan *model.Reload {
	return conn.receive
}

// Closed is closed when the stream shuts down and the connection will not
// receive anything anymore.
func (conn *Connection) Closed() <-chan struct{} {
	return conn.closed
}

func (conn *Connection) Transport() string {
	return conn.transport
}

// offer never blocks. A client that already has reloads waiting will
// reload anyway, so dropping is harmless.
func (conn *Connection) offer(reload *model.Reload) bool {
	select {
	case conn.receive <- reload:
		return true
	default:
		return false
	}
}
