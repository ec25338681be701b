package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/livereload-universal/relay/config"
	"github.com/livereload-universal/relay/log"
	"github.com/livereload-universal/relay/stream"
)

type Server struct {
	stream     stream.Stream
	heartBeat  time.Duration
	logger     log.Logger
	closed     chan struct{}
	closedOnce sync.Once
}

func NewServer(str stream.Stream, conf *config.PushConfig, logger log.Logger) *Server {
	return &Server{
		stream:    str,
		heartBeat: time.Duration(conf.HeartBeatInterval) * time.Second,
		logger:    logger.WithPrefix("sse"),
		closed:    make(chan struct{}),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusNotImplemented)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Add("X-Accel-Buffering", "no")

	conn := s.stream.CreateConnection(stream.TransportSSE)
	defer s.stream.CloseConnection(conn)

	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var ping <-chan time.Time
	if s.heartBeat > 0 {
		ticker := time.NewTicker(s.heartBeat)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case payload := <-conn.Receive():
			data, e := json.Marshal(payload)
			if e == nil {
				_, e = fmt.Fprintf(w, "data: %s\n\n", string(data))
				if e == nil {
					flusher.Flush()
				} else {
					s.logger.Errorf("%s", e)
					return
				}
			} else {
				s.logger.Errorf("%s", e)
			}
		case <-ping:
			if _, e := fmt.Fprint(w, ": ping\n\n"); e != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		case <-conn.Closed():
			return
		case <-s.closed:
			return
		}
	}
}

func (s *Server) Close() {
	s.closedOnce.Do(func() {
		close(s.closed)
	})
}
