// Package stream keeps track of the browser clients connected to the push
// server and fans reload commands out to them.
package stream

import (
	"sync"

	"github.com/livereload-universal/relay/diag/metrics"
	"github.com/livereload-universal/relay/log"
	"github.com/livereload-universal/relay/model"
	"github.com/livereload-universal/relay/pubsub"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	TransportWebSocket = "ws"
	TransportSSE       = "sse"
)

type Stream interface {
	CreateConnection(transport string) *Connection
	CloseConnection(conn *Connection)
	ConnectionCount(transport string) int64
	Close()
}

type stream struct {
	reloads         chan *model.Reload
	publisher       pubsub.SubscriptionHandler[*model.Reload]
	connections     map[*Connection]struct{}
	connEstablished chan *Connection
	connClosed      chan *Connection
	counters        *xsync.MapOf[string, *xsync.Counter]
	stop            chan struct{}
	done            chan struct{}
	closedOnce      sync.Once
	metrics         metrics.Reporter
	log             log.Logger
}

func NewStream(publisher pubsub.SubscriptionHandler[*model.Reload], metrics metrics.Reporter, log log.Logger) Stream {
	s := &stream{
		reloads:         make(chan *model.Reload, 8),
		publisher:       publisher,
		connections:     make(map[*Connection]struct{}),
		connEstablished: make(chan *Connection),
		connClosed:      make(chan *Connection),
		counters:        xsync.NewMapOf[string, *xsync.Counter](),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
		metrics:         metrics,
		log:             log.WithPrefix("stream"),
	}
	publisher.Subscribe(s.reloads)
	go s.run()
	return s
}

func (s *stream) run() {
	defer close(s.done)
	for {
		select {
		case conn := <-s.connEstablished:
			s.connections[conn] = struct{}{}
			s.counter(conn.transport).Inc()
			s.log.Debugf("#%s: connection established, all connections: %d", conn.transport, len(s.connections))
			if s.metrics != nil {
				s.metrics.IncrementConnection(conn.transport)
			}

		case conn := <-s.connClosed:
			if _, ok := s.connections[conn]; !ok {
				continue
			}
			delete(s.connections, conn)
			s.counter(conn.transport).Dec()
			s.log.Debugf("#%s: connection closed, all connections: %d", conn.transport, len(s.connections))
			if s.metrics != nil {
				s.metrics.DecrementConnection(conn.transport)
			}

		case reload := <-s.reloads:
			s.notifyConnections(reload)

		case <-s.stop:
			s.teardownConnections()
			return
		}
	}
}

func (s *stream) CreateConnection(transport string) *Connection {
	conn := newConnection(transport)
	select {
	case s.connEstablished <- conn:
	case <-s.stop:
		close(conn.closed)
	}
	return conn
}

func (s *stream) CloseConnection(conn *Connection) {
	select {
	case s.connClosed <- conn:
	case <-s.stop:
	}
}

func (s *stream) ConnectionCount(transport string) int64 {
	if c, ok := s.counters.Load(transport); ok {
		return c.Value()
	}
	return 0
}

func (s *stream) Close() {
	s.closedOnce.Do(func() {
		// the run loop keeps draining reloads until the publisher let go of us
		s.publisher.Unsubscribe(s.reloads)
		close(s.stop)
		<-s.done
		s.log.Reportf("shutdown complete")
	})
}

func (s *stream) counter(transport string) *xsync.Counter {
	c, _ := s.counters.LoadOrCompute(transport, func() *xsync.Counter {
		return xsync.NewCounter()
	})
	return c
}

func (s *stream) notifyConnections(reload *model.Reload) {
	sent := make(map[string]int)
	for conn := range s.connections {
		if conn.offer(reload) {
			sent[conn.transport]++
		} else {
			s.log.Debugf("#%s: client is behind, reload of %s dropped", conn.transport, reload.Path)
		}
	}
	for transport, count := range sent {
		s.log.Debugf("#%s: reload of %s sent to %d connection(s)", transport, reload.Path, count)
		if s.metrics != nil {
			s.metrics.AddSentMessageCount(count, transport)
		}
	}
}

func (s *stream) teardownConnections() {
	for conn := range s.connections {
		close(conn.closed)
		s.counter(conn.transport).Dec()
		if s.metrics != nil {
			s.metrics.DecrementConnection(conn.transport)
		}
		delete(s.connections, conn)
	}
}
