// Package trigger lets build tools outside the process request reloads over
// HTTP.
package trigger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/livereload-universal/relay/config"
	"github.com/livereload-universal/relay/emitter"
	"github.com/livereload-universal/relay/log"
	"github.com/livereload-universal/relay/loop"
)

const signatureHeader = "X-LiveReload-Signature-V1"
const idHeader = "X-LiveReload-Trigger-ID"
const timestampHeader = "X-LiveReload-Timestamp"

const maxBodySize = 1 << 20

// Dispatcher emits every path of one request in a single scheduler tick,
// so that they are coalesced into one refresh.
type Dispatcher interface {
	Dispatch(paths []string) bool
}

type DispatcherFunc func(paths []string) bool

func (f DispatcherFunc) Dispatch(paths []string) bool {
	return f(paths)
}

func LoopDispatcher(lp *loop.Loop, em *emitter.Emitter) Dispatcher {
	return DispatcherFunc(func(paths []string) bool {
		return lp.Call(func() {
			for _, p := range paths {
				em.Emit(p)
			}
		})
	})
}

// WhenReady rejects dispatches while ready reports false, so callers learn
// that nothing would deliver the reload.
func WhenReady(ready func() bool, next Dispatcher) Dispatcher {
	return DispatcherFunc(func(paths []string) bool {
		if !ready() {
			return false
		}
		return next.Dispatch(paths)
	})
}

type request struct {
	Path  string   `json:"path"`
	Paths []string `json:"paths"`
}

type Server struct {
	dispatcher        Dispatcher
	signingKey        string
	signatureValidFor int
	logger            log.Logger
}

func NewServer(dispatcher Dispatcher, conf *config.TriggerConfig, log log.Logger) *Server {
	return &Server{
		dispatcher:        dispatcher,
		signingKey:        conf.SigningKey,
		signatureValidFor: conf.SignatureValidFor,
		logger:            log.WithPrefix("trigger"),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.logger.Debugf("reading request body failed, rejecting")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if s.signingKey != "" && !s.validSignature(r, body) {
		http.Error(w, "Signature validation failed", http.StatusBadRequest)
		return
	}

	paths := r.URL.Query()["path"]
	if len(body) > 0 && isJSON(r) {
		var req request
		if err := json.Unmarshal(body, &req); err != nil {
			s.logger.Debugf("malformed request body: %s", err)
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.Path != "" {
			paths = append(paths, req.Path)
		}
		paths = append(paths, req.Paths...)
	}
	paths = nonEmpty(paths)
	if len(paths) == 0 {
		http.Error(w, "'path' must be set", http.StatusBadRequest)
		return
	}

	if !s.dispatcher.Dispatch(paths) {
		http.Error(w, "Reload server unavailable", http.StatusServiceUnavailable)
		return
	}
	s.logger.Infof("trigger request received, emitted %d path(s)", len(paths))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) validSignature(r *http.Request, body []byte) bool {
	signatures := r.Header.Get(signatureHeader)
	triggerId := r.Header.Get(idHeader)
	timestampStr := r.Header.Get(timestampHeader)
	if signatures == "" || triggerId == "" || timestampStr == "" {
		s.logger.Debugf("request missing a signature validation header")
		return false
	}
	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil || timestamp < (time.Now().Unix()-int64(s.signatureValidFor)) {
		s.logger.Debugf("request is too old, rejecting")
		return false
	}
	calcSignature := Sign(s.signingKey, triggerId, timestampStr, body)
	for _, sig := range strings.Split(signatures, ",") {
		if hmac.Equal([]byte(strings.TrimSpace(sig)), []byte(calcSignature)) {
			s.logger.Debugf("signature validation passed")
			return true
		}
	}
	s.logger.Debugf("no matching signatures found")
	return false
}

// Sign computes the value a client sends in the signature header.
func Sign(key string, triggerId string, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(triggerId + timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func nonEmpty(paths []string) []string {
	r := paths[:0]
	for _, p := range paths {
		if p != "" {
			r = append(r, p)
		}
	}
	return r
}
