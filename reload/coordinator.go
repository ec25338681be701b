// Package reload turns bursts of change events into single refresh signals.
//
// A Coordinator subscribes to an emitter, queues every identifier it
// receives and flushes the queue one scheduler tick later. Every event that
// arrives before the flush runs is seen by the same flush, and at most one
// refresh is sent per flush: the first queued identifier that matches the
// watch set.
package reload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/livereload-universal/relay/diag/metrics"
	"github.com/livereload-universal/relay/emitter"
	"github.com/livereload-universal/relay/log"
	"github.com/livereload-universal/relay/loop"
	"github.com/livereload-universal/relay/pathres"
)

const Name = "livereload-universal"

var (
	ErrMissingEmitter = errors.New("reload event emitter must be specified")
	ErrMissingOpener  = errors.New("notification channel opener must be specified")
	ErrMissingLoop    = errors.New("scheduler loop must be specified")
)

type State int

const (
	Idle State = iota
	Started
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Coordinator struct {
	opts    Options
	port    int
	opener  Opener
	loop    *loop.Loop
	notice  io.Writer
	metrics metrics.Reporter
	log     log.Logger

	// fallback serializes direct execution once the loop has exited.
	fallback sync.Mutex

	// Everything below is only touched on the loop goroutine.
	state     State
	baseDirs  []string
	knownDirs map[string]struct{}
	watchSet  pathres.Set
	channel   Channel
	token     emitter.Token
	queue     []string
	flushTask *loop.Task
	announced bool
}

func New(opts Options, opener Opener, lp *loop.Loop, logger log.Logger) (*Coordinator, error) {
	if opts.Emitter == nil {
		return nil, ErrMissingEmitter
	}
	if opener == nil {
		return nil, ErrMissingOpener
	}
	if lp == nil {
		return nil, ErrMissingLoop
	}
	port := opts.Port
	if port <= 0 {
		port = DefaultPort
	}
	notice := opts.Notice
	if notice == nil {
		notice = os.Stdout
	}
	opts.Verbosity = ParseVerbosity(string(opts.Verbosity))
	return &Coordinator{
		opts:      opts,
		port:      port,
		opener:    opener,
		loop:      lp,
		notice:    notice,
		metrics:   opts.Metrics,
		log:       logger.WithPrefix("reload"),
		knownDirs: make(map[string]struct{}),
	}, nil
}

// Configure registers an output directory. Relative watch entries are
// anchored to every directory registered so far; directories are only ever
// added, never replaced.
func (c *Coordinator) Configure(baseDirectory string) {
	c.do(func() {
		if _, ok := c.knownDirs[baseDirectory]; ok {
			return
		}
		c.knownDirs[baseDirectory] = struct{}{}
		c.baseDirs = append(c.baseDirs, baseDirectory)

		if c.opts.Watch.IsEmpty() {
			return
		}
		if c.watchSet == nil {
			c.watchSet = pathres.Resolve(c.opts.Watch, c.baseDirs)
		} else {
			c.watchSet.Extend(c.opts.Watch, baseDirectory)
		}
		c.log.Debugf("watching %d path(s) in %d output dir(s)", len(c.watchSet), len(c.baseDirs))
	})
}

// Start opens the notification channel and subscribes to the emitter. When
// the channel cannot be opened the error is returned and the coordinator
// stays idle. Starting a started or stopped coordinator does nothing.
func (c *Coordinator) Start() error {
	var err error
	c.do(func() {
		if c.state != Idle {
			return
		}
		ch, openErr := c.opener.Open(ChannelConfig{Port: c.port, Debug: c.opts.Verbosity == Debug})
		if openErr != nil {
			err = fmt.Errorf("could not open notification channel on port %d: %w", c.port, openErr)
			return
		}
		c.channel = ch
		c.token = c.opts.Emitter.Subscribe(c.handle)
		c.state = Started
		c.log.Reportf("listening for reload events, clients connect on port %d", c.port)
	})
	return err
}

// Stop unsubscribes from the emitter and closes the channel. A flush that
// is already scheduled still runs but will not refresh anything.
func (c *Coordinator) Stop() {
	c.do(func() {
		if c.state != Started {
			return
		}
		c.opts.Emitter.Unsubscribe(c.token)
		c.token = 0
		if err := c.channel.Close(); err != nil {
			c.log.Errorf("closing notification channel failed: %s", err)
		}
		c.channel = nil
		c.state = Stopped
		c.log.Reportf("stopped")
	})
}

// BundleGenerated prints the enabled notice the first time it's called,
// unless the coordinator is silent.
func (c *Coordinator) BundleGenerated() {
	c.do(func() {
		if c.announced {
			return
		}
		c.announced = true
		if c.opts.Verbosity != Silent {
			_, _ = fmt.Fprintln(c.notice, green("✔")+" LiveReload enabled")
		}
	})
}

// Banner returns the JS snippet that loads the LiveReload client into the
// page the artifact runs in.
func (c *Coordinator) Banner() string {
	return snippet(c.opts.ClientURL, c.port)
}

func (c *Coordinator) Port() int {
	return c.port
}

func (c *Coordinator) State() State {
	var s State
	c.do(func() {
		s = c.state
	})
	return s
}

// handle runs on whatever goroutine emits. It never blocks.
func (c *Coordinator) handle(identifier string) {
	if c.metrics != nil {
		c.metrics.IncrementReceivedEvent()
	}
	c.loop.Post(func() {
		c.enqueue(identifier)
	})
}

func (c *Coordinator) enqueue(identifier string) {
	c.queue = append(c.queue, identifier)
	c.flushTask.Cancel()
	c.flushTask = c.loop.Post(c.flush)
}

func (c *Coordinator) flush() {
	c.flushTask = nil
	queue := c.queue
	c.queue = nil

	target, ok := c.firstMatch(queue)
	if !ok {
		c.log.Debugf("none of %d event(s) matched the watched paths", len(queue))
		c.reportFlush(metrics.FlushFiltered)
		return
	}
	if c.channel == nil {
		c.log.Debugf("channel closed, dropping refresh of %s", target)
		c.reportFlush(metrics.FlushClosed)
		return
	}
	c.log.Debugf("refreshing %s (%d event(s) coalesced)", target, len(queue))
	c.channel.Refresh(target)
	c.reportFlush(metrics.FlushRefreshed)
}

func (c *Coordinator) firstMatch(queue []string) (string, bool) {
	for _, identifier := range queue {
		if c.matches(identifier) {
			return identifier, true
		}
	}
	return "", false
}

// matches is false for a non-empty watch list until an output directory is
// configured, since relative entries can't be resolved before that.
func (c *Coordinator) matches(identifier string) bool {
	return pathres.Matches(c.opts.Watch, c.watchSet, c.baseDirs, identifier)
}

func (c *Coordinator) reportFlush(outcome string) {
	if c.metrics != nil {
		c.metrics.IncrementFlush(outcome)
	}
}

// do runs f on the loop. Once the loop has exited there is no other
// goroutine touching the state, so f runs on the caller instead.
func (c *Coordinator) do(f func()) {
	if c.loop.Call(f) {
		return
	}
	c.fallback.Lock()
	defer c.fallback.Unlock()
	f()
}
