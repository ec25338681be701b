package reload

import (
	"io"

	"github.com/livereload-universal/relay/diag/metrics"
	"github.com/livereload-universal/relay/emitter"
	"github.com/livereload-universal/relay/pathres"
)

const DefaultPort = 35729

// Verbosity controls how much the coordinator prints to its notice writer
// and whether the notification channel runs in debug mode.
type Verbosity string

const (
	Silent  Verbosity = "silent"
	Startup Verbosity = "startup"
	Debug   Verbosity = "debug"
)

// ParseVerbosity maps unknown or empty values to Startup.
func ParseVerbosity(s string) Verbosity {
	switch Verbosity(s) {
	case Silent, Debug:
		return Verbosity(s)
	}
	return Startup
}

type Options struct {
	// Emitter delivers one reload event per changed file. Required.
	Emitter   emitter.Source
	Verbosity Verbosity
	// Watch limits reloads to these paths. Relative entries are resolved
	// against every configured output directory.
	Watch pathres.Spec
	// Port of the notification channel. Zero falls back to DefaultPort.
	Port int
	// ClientURL overrides the address the injected snippet loads the
	// client script from. Invalid URLs are ignored.
	ClientURL string
	// Notice receives the one-time "enabled" message. Defaults to stdout.
	Notice  io.Writer
	Metrics metrics.Reporter
}

// ChannelConfig is handed to the Opener when the coordinator starts.
type ChannelConfig struct {
	Port  int
	Debug bool
}

// Channel pushes refresh signals to connected clients.
type Channel interface {
	Refresh(target string)
	Close() error
}

type Opener interface {
	Open(conf ChannelConfig) (Channel, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(conf ChannelConfig) (Channel, error)

func (f OpenerFunc) Open(conf ChannelConfig) (Channel, error) {
	return f(conf)
}
