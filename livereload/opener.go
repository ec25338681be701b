// Package livereload runs the LiveReload protocol server that connected
// browsers receive refresh commands from.
package livereload

import (
	"sync"

	"github.com/livereload-universal/relay/config"
	"github.com/livereload-universal/relay/diag/metrics"
	"github.com/livereload-universal/relay/log"
	"github.com/livereload-universal/relay/model"
	"github.com/livereload-universal/relay/pubsub"
	"github.com/livereload-universal/relay/reload"
	"github.com/livereload-universal/relay/stream"
	"github.com/livereload-universal/relay/web"
)

type Opener struct {
	push    config.PushConfig
	tls     *config.TlsConfig
	metrics metrics.Reporter
	log     log.Logger
}

// NewOpener returns an opener that starts a push server per Open call.
// The given configs are copied.
func NewOpener(push *config.PushConfig, tls *config.TlsConfig, reporter metrics.Reporter, logger log.Logger) *Opener {
	o := &Opener{
		push:    *push,
		metrics: reporter,
		log:     logger,
	}
	if tls != nil {
		t := *tls
		o.tls = &t
	}
	return o
}

// Open binds conf.Port before returning.
func (o *Opener) Open(conf reload.ChannelConfig) (reload.Channel, error) {
	push := o.push
	logger := o.log
	if conf.Debug {
		push.Log.Level = "debug"
		logger = logger.WithLevel(log.Debug)
	}

	publisher := pubsub.NewPublisher[*model.Reload]()
	str := stream.NewStream(publisher, o.metrics, logger)
	router := web.NewPushRouter(str, o.metrics, &push, reload.Name, logger)

	srv, err := web.NewServer(router.Handler(), "push", conf.Port, o.tls, logger, nil)
	if err == nil {
		err = srv.Listen()
	}
	if err != nil {
		router.Close()
		str.Close()
		publisher.Close()
		return nil, err
	}
	return &Channel{
		publisher: publisher,
		stream:    str,
		router:    router,
		server:    srv,
		log:       logger.WithPrefix("channel"),
	}, nil
}

type Channel struct {
	publisher  pubsub.Publisher[*model.Reload]
	stream     stream.Stream
	router     *web.PushRouter
	server     *web.Server
	log        log.Logger
	closedOnce sync.Once
}

func (c *Channel) Refresh(target string) {
	c.log.Debugf("sending reload of %s to %d websocket and %d SSE client(s)", target,
		c.stream.ConnectionCount(stream.TransportWebSocket), c.stream.ConnectionCount(stream.TransportSSE))
	c.publisher.Publish(model.NewReload(target))
}

// Port is the port the server is bound to.
func (c *Channel) Port() int {
	return c.server.Port()
}

func (c *Channel) Close() error {
	c.closedOnce.Do(func() {
		c.router.Close()
		c.server.Shutdown()
		c.stream.Close()
		c.publisher.Close()
	})
	return nil
}
