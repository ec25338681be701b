package diag

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/livereload-universal/relay/config"
	"github.com/livereload-universal/relay/diag/metrics"
	"github.com/livereload-universal/relay/diag/status"
	"github.com/livereload-universal/relay/log"
)

type Server struct {
	httpServer   *http.Server
	log          log.Logger
	conf         *config.DiagConfig
	errorChannel chan error
}

func NewServer(conf *config.DiagConfig, metricsReporter metrics.Reporter, statusReporter status.Reporter, log log.Logger, errorChan chan error) *Server {
	diagLog := log.WithPrefix("diag")
	mux := http.NewServeMux()

	if conf.Metrics.Enabled && metricsReporter != nil {
		mux.Handle("/metrics", metricsReporter.HttpHandler())
		diagLog.Reportf("metrics enabled, accepting requests on path: /metrics")
	}

	if conf.Status.Enabled && statusReporter != nil {
		mux.Handle("/status", statusReporter.HttpHandler())
		diagLog.Reportf("status enabled, accepting requests on path: /status")
	}

	setupDebugEndpoints(mux)

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(conf.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		log:          diagLog,
		httpServer:   httpServer,
		conf:         conf,
		errorChannel: errorChan,
	}
}

func (s *Server) Listen() {
	s.log.Reportf("diag HTTP server listening on port: %d", s.conf.Port)

	go func() {
		httpErr := s.httpServer.ListenAndServe()

		if !errors.Is(httpErr, http.ErrServerClosed) {
			s.errorChannel <- fmt.Errorf("error starting diag HTTP server on port: %d  %s", s.conf.Port, httpErr)
		}
	}()
}

func (s *Server) Shutdown() {
	s.log.Reportf("initiating server shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		s.log.Errorf("shutdown error: %s", err)
	}

	s.log.Reportf("server shutdown complete")
}
