package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/livereload-universal/relay/config"
	"github.com/livereload-universal/relay/diag/metrics"
	"github.com/livereload-universal/relay/internal/utils"
	"github.com/livereload-universal/relay/log"
	"github.com/livereload-universal/relay/stream"
	"github.com/livereload-universal/relay/web/client"
	"github.com/livereload-universal/relay/web/mware"
	"github.com/livereload-universal/relay/web/sse"
	"github.com/livereload-universal/relay/web/trigger"
	"github.com/livereload-universal/relay/web/ws"
)

const (
	WebSocketPath = "/livereload"
	EventsPath    = "/livereload/events"
	ScriptPath    = "/livereload.js"
	TriggerPath   = "/reload"
)

// PushRouter serves the endpoints browsers connect to.
type PushRouter struct {
	router    chi.Router
	wsServer  *ws.Server
	sseServer *sse.Server
	metrics   metrics.Reporter
}

func NewPushRouter(str stream.Stream, reporter metrics.Reporter, conf *config.PushConfig, serverName string, logger log.Logger) *PushRouter {
	pushLog := logger.WithLevel(conf.Log.GetLevel()).WithPrefix("push")

	r := &PushRouter{
		router:  chi.NewRouter(),
		metrics: reporter,
	}
	r.setupWebSocketRoutes(str, conf, serverName, pushLog)
	if conf.Sse.Enabled {
		r.setupSSERoutes(str, conf, pushLog)
	}
	r.setupScriptRoutes(conf, pushLog)
	return r
}

func (s *PushRouter) Handler() http.Handler {
	return s.router
}

func (s *PushRouter) Close() {
	if s.wsServer != nil {
		s.wsServer.Close()
	}
	if s.sseServer != nil {
		s.sseServer.Close()
	}
}

func (s *PushRouter) setupWebSocketRoutes(str stream.Stream, conf *config.PushConfig, serverName string, l log.Logger) {
	s.wsServer = ws.NewServer(str, conf, serverName, l)
	handler := http.HandlerFunc(s.wsServer.ServeHTTP)
	if l.Level() == log.Debug {
		handler = mware.DebugLog(l, handler)
	}
	s.router.Method(http.MethodGet, WebSocketPath, handler)
	l.Reportf("websocket enabled, accepting requests on path: %s", WebSocketPath)
}

func (s *PushRouter) setupSSERoutes(str stream.Stream, conf *config.PushConfig, l log.Logger) {
	s.sseServer = sse.NewServer(str, conf, l)
	handler := mware.AutoOptions(s.sseServer.ServeHTTP)
	if len(conf.Headers) > 0 {
		handler = mware.ExtraHeaders(conf.Headers, handler)
	}
	if conf.CORS.Enabled {
		handler = mware.CORS([]string{http.MethodGet, http.MethodOptions}, conf.CORS.AllowedOrigins, utils.Keys(conf.Headers), nil, handler)
	}
	if l.Level() == log.Debug {
		handler = mware.DebugLog(l, handler)
	}
	s.router.Method(http.MethodGet, EventsPath, handler)
	s.router.Method(http.MethodOptions, EventsPath, handler)
	l.Reportf("SSE enabled, accepting requests on path: %s", EventsPath)
}

func (s *PushRouter) setupScriptRoutes(conf *config.PushConfig, l log.Logger) {
	handler := mware.AutoOptions(mware.GZip(client.ServeHTTP))
	if len(conf.Headers) > 0 {
		handler = mware.ExtraHeaders(conf.Headers, handler)
	}
	if conf.CORS.Enabled {
		handler = mware.CORS([]string{http.MethodGet, http.MethodHead, http.MethodOptions}, conf.CORS.AllowedOrigins, utils.Keys(conf.Headers), nil, handler)
	}
	if s.metrics != nil {
		handler = metrics.Measure(s.metrics, handler)
	}
	if l.Level() == log.Debug {
		handler = mware.DebugLog(l, handler)
	}
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		s.router.Method(method, ScriptPath, handler)
	}
	l.Reportf("client script available on path: %s", ScriptPath)
}

// NewTriggerRouter serves the endpoint build tools post reload requests to.
func NewTriggerRouter(dispatcher trigger.Dispatcher, reporter metrics.Reporter, conf *config.TriggerConfig, logger log.Logger) http.Handler {
	l := logger.WithLevel(conf.Log.GetLevel()).WithPrefix("http")
	router := chi.NewRouter()

	srv := trigger.NewServer(dispatcher, conf, l)
	handler := http.HandlerFunc(srv.ServeHTTP)
	if conf.Auth.User != "" && conf.Auth.Password != "" {
		handler = mware.BasicAuth(conf.Auth.User, conf.Auth.Password, l, handler)
	}
	if len(conf.AuthHeaders) > 0 {
		handler = mware.HeaderAuth(conf.AuthHeaders, l, handler)
	}
	if reporter != nil {
		handler = metrics.Measure(reporter, handler)
	}
	if l.Level() == log.Debug {
		handler = mware.DebugLog(l, handler)
	}
	router.Method(http.MethodGet, TriggerPath, handler)
	router.Method(http.MethodPost, TriggerPath, handler)
	l.Reportf("trigger enabled, accepting requests on path: %s", TriggerPath)
	return router
}
