package web

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/livereload-universal/relay/config"
	"github.com/livereload-universal/relay/log"
)

type Server struct {
	log          log.Logger
	name         string
	port         int
	httpServer   *http.Server
	listener     net.Listener
	errorChannel chan error
}

// NewServer prepares an HTTP server for handler. Serving errors are
// reported on errorChan when it's not nil, otherwise they are logged.
func NewServer(handler http.Handler, name string, port int, tlsConf *config.TlsConfig, log log.Logger, errorChan chan error) (*Server, error) {
	httpLog := log.WithPrefix(name)
	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if tlsConf != nil && tlsConf.Enabled {
		t := &tls.Config{
			MinVersion: tlsConf.GetVersion(),
		}
		for _, c := range tlsConf.Certificates {
			if cert, err := tls.LoadX509KeyPair(c.Cert, c.Key); err == nil {
				t.Certificates = append(t.Certificates, cert)
			} else {
				httpLog.Errorf("failed to load the certificate and key pair: %s", err)
				return nil, err
			}
		}
		httpServer.TLSConfig = t
		httpLog.Reportf("using TLS version: %.1f", tlsConf.MinVersion)
	}
	srv := &Server{
		log:          httpLog,
		name:         name,
		port:         port,
		httpServer:   httpServer,
		errorChannel: errorChan,
	}
	return srv, nil
}

// Listen binds the port before returning, so an occupied port is reported
// to the caller. Serving continues in the background.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("error starting %s server on port: %d  %w", s.name, s.port, err)
	}
	if s.httpServer.TLSConfig != nil {
		listener = tls.NewListener(listener, s.httpServer.TLSConfig)
	}
	s.listener = listener
	s.log.Reportf("%s server listening on port: %d", s.name, s.Port())

	go func() {
		httpErr := s.httpServer.Serve(listener)
		if !errors.Is(httpErr, http.ErrServerClosed) {
			err := fmt.Errorf("error serving %s on port: %d  %s", s.name, s.Port(), httpErr)
			if s.errorChannel != nil {
				s.errorChannel <- err
			} else {
				s.log.Errorf("%s", err)
			}
		}
	}()
	return nil
}

// Port returns the bound port, which differs from the configured one when
// that was 0.
func (s *Server) Port() int {
	if s.listener != nil {
		if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return s.port
}

func (s *Server) Shutdown() {
	s.log.Reportf("initiating server shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		s.log.Errorf("shutdown error: %v", err)
	}
	s.log.Reportf("server shutdown complete")
}
