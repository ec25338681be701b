// Package ws speaks the LiveReload protocol to browser clients over
// WebSocket.
package ws

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/livereload-universal/relay/config"
	"github.com/livereload-universal/relay/log"
	"github.com/livereload-universal/relay/model"
	"github.com/livereload-universal/relay/stream"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

type Server struct {
	stream     stream.Stream
	upgrader   websocket.Upgrader
	serverName string
	heartBeat  time.Duration
	logger     log.Logger
	closed     chan struct{}
	closedOnce sync.Once
}

func NewServer(str stream.Stream, conf *config.PushConfig, serverName string, logger log.Logger) *Server {
	wsLog := logger.WithPrefix("ws")
	s := &Server{
		stream:     str,
		serverName: serverName,
		heartBeat:  time.Duration(conf.HeartBeatInterval) * time.Second,
		logger:     wsLog,
		closed:     make(chan struct{}),
	}
	allowed := conf.CORS.AllowedOrigins
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// pages are served from anywhere, the dev server included
			if len(allowed) == 0 {
				return true
			}
			return slices.Contains(allowed, r.Header.Get("Origin"))
		},
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debugf("websocket upgrade failed: %s", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	sub := s.stream.CreateConnection(stream.TransportWebSocket)
	defer s.stream.CloseConnection(sub)

	hellos := make(chan struct{}, 1)
	readDone := make(chan struct{})
	go s.read(conn, hellos, readDone)

	var ping <-chan time.Time
	if s.heartBeat > 0 {
		ticker := time.NewTicker(s.heartBeat)
		defer ticker.Stop()
		ping = ticker.C
	}

	handshakeDone := false
	for {
		select {
		case <-hellos:
			if err := s.writeJSON(conn, model.NewServerHello(s.serverName)); err != nil {
				s.logger.Debugf("writing hello failed: %s", err)
				return
			}
			handshakeDone = true
			s.logger.Debugf("handshake completed with %s", r.RemoteAddr)
		case reload := <-sub.Receive():
			if !handshakeDone {
				s.logger.Debugf("client %s did not say hello yet, skipping reload of %s", r.RemoteAddr, reload.Path)
				continue
			}
			if err := s.writeJSON(conn, reload); err != nil {
				s.logger.Debugf("writing reload failed: %s", err)
				return
			}
		case <-ping:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-readDone:
			return
		case <-sub.Closed():
			s.writeClose(conn)
			return
		case <-s.closed:
			s.writeClose(conn)
			return
		}
	}
}

// read consumes client commands. Only hello is answered, info and url
// commands are accepted without a reply.
func (s *Server) read(conn *websocket.Conn, hellos chan<- struct{}, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	if s.heartBeat > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(2 * s.heartBeat))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(2 * s.heartBeat))
		})
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.logger.Debugf("read failed: %s", err)
			}
			return
		}
		var cmd model.ClientCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.logger.Debugf("ignoring malformed client message: %s", err)
			continue
		}
		switch cmd.Command {
		case model.CommandHello:
			if !cmd.SupportsOfficial7() {
				s.logger.Warnf("client does not support %s, protocols offered: %v", model.ProtocolOfficial7, cmd.Protocols)
				return
			}
			select {
			case hellos <- struct{}{}:
			default:
			}
		case model.CommandInfo, model.CommandUrl:
			s.logger.Debugf("client sent %s", cmd.Command)
		default:
			s.logger.Debugf("ignoring unknown command '%s'", cmd.Command)
		}
	}
}

func (s *Server) writeJSON(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func (s *Server) writeClose(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func (s *Server) Close() {
	s.closedOnce.Do(func() {
		close(s.closed)
	})
}
