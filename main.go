package main

import (
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/livereload-universal/relay/config"
	"github.com/livereload-universal/relay/diag"
	"github.com/livereload-universal/relay/diag/metrics"
	"github.com/livereload-universal/relay/diag/status"
	"github.com/livereload-universal/relay/emitter"
	"github.com/livereload-universal/relay/livereload"
	"github.com/livereload-universal/relay/log"
	"github.com/livereload-universal/relay/loop"
	"github.com/livereload-universal/relay/plugin"
	"github.com/livereload-universal/relay/reload"
	"github.com/livereload-universal/relay/web"
	"github.com/livereload-universal/relay/web/trigger"
)

const (
	exitOk = iota
	exitFailure
)

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	os.Exit(run(sigChan))
}

func run(closeSignal chan os.Signal) int {
	logger := log.NewLogger(os.Stderr, os.Stdout, log.Warn)
	logger.Reportf("service starting...")
	var configFile string
	flag.StringVar(&configFile, "c", "", "path to the configuration file")
	flag.Parse()

	conf, err := loadConfig(configFile)
	if err != nil {
		logger.Errorf("%s", err)
		return exitFailure
	}

	logger = logger.WithLevel(serviceLogLevel(&conf))

	errorChan := make(chan error)

	statusReporter := status.NewReporter(status.Reload, status.Config)

	var metricsReporter metrics.Reporter
	if conf.Diag.Metrics.Enabled {
		metricsReporter = metrics.NewReporter()
	}

	var modified <-chan struct{}
	if configFile != "" && conf.Reload.WatchConfig {
		watcher, err := config.NewWatcher(configFile, logger)
		if err != nil {
			return exitFailure
		}
		defer watcher.Close()
		modified = watcher.Modified()
	}

	lp := loop.New(logger)
	defer lp.Close()
	em := emitter.New()

	holder := &plugin.Holder{}
	defer holder.Close()

	c, err := newCoordinator(&conf, em, lp, metricsReporter, logger)
	if err != nil {
		logger.Errorf("%s", err)
		return exitFailure
	}
	if err = holder.Install(c); err != nil {
		logger.Errorf("%s", err)
		return exitFailure
	}
	statusReporter.ReportOk(status.Reload, "coordinator started")
	c.BundleGenerated()

	var triggerServer *web.Server
	if conf.Trigger.Enabled {
		dispatcher := trigger.WhenReady(func() bool {
			return holder.Current() != nil
		}, trigger.LoopDispatcher(lp, em))
		router := web.NewTriggerRouter(dispatcher, metricsReporter, &conf.Trigger, logger)
		triggerServer, err = web.NewServer(router, "trigger", conf.Trigger.Port, &conf.Tls, logger, errorChan)
		if err == nil {
			err = triggerServer.Listen()
		}
		if err != nil {
			logger.Errorf("%s", err)
			return exitFailure
		}
	}

	var diagServer *diag.Server
	if conf.Diag.Enabled && (conf.Diag.Metrics.Enabled || conf.Diag.Status.Enabled) {
		diagServer = diag.NewServer(&conf.Diag, metricsReporter, statusReporter, logger, errorChan)
		diagServer.Listen()
	}

	active := conf
	for {
		select {
		case <-modified:
			newConf, err := loadConfig(configFile)
			if err != nil {
				logger.Errorf("config reload failed, keeping the current one: %s", err)
				statusReporter.ReportError(status.Config, err.Error())
				continue
			}
			statusReporter.ReportOk(status.Config, "config reloaded")
			if err = reinstall(holder, &newConf, em, lp, metricsReporter, logger); err != nil {
				logger.Errorf("%s", err)
				statusReporter.ReportError(status.Reload, err.Error())
				// the previous coordinator is already stopped, bring it back
				if err = reinstall(holder, &active, em, lp, metricsReporter, logger); err != nil {
					logger.Errorf("restoring the previous configuration failed: %s", err)
					statusReporter.ReportError(status.Reload, err.Error())
					continue
				}
				statusReporter.ReportOk(status.Reload, "restored previous configuration")
				continue
			}
			active = newConf
			statusReporter.ReportOk(status.Reload, "coordinator restarted")
		case <-closeSignal:
			holder.Close()

			wg := sync.WaitGroup{}
			if triggerServer != nil {
				wg.Add(1)
				go func() {
					triggerServer.Shutdown()
					wg.Done()
				}()
			}
			if diagServer != nil {
				wg.Add(1)
				go func() {
					diagServer.Shutdown()
					wg.Done()
				}()
			}
			wg.Wait()
			return exitOk
		case err = <-errorChan:
			logger.Errorf("%s", err)
			return exitFailure
		}
	}
}

func reinstall(holder *plugin.Holder, conf *config.Config, em *emitter.Emitter, lp *loop.Loop, reporter metrics.Reporter, logger log.Logger) error {
	c, err := newCoordinator(conf, em, lp, reporter, logger)
	if err != nil {
		return err
	}
	return holder.Install(c)
}

func loadConfig(configFile string) (config.Config, error) {
	conf, err := config.LoadConfigFromFileAndEnvironment(configFile)
	if err != nil {
		return config.Config{}, err
	}
	if err = conf.Validate(); err != nil {
		return config.Config{}, err
	}
	return conf, nil
}

// serviceLogLevel silences everything but errors for the silent verbosity.
func serviceLogLevel(conf *config.Config) log.Level {
	if conf.Reload.GetVerbosity() == config.VerbositySilent {
		return log.Error
	}
	return conf.Log.GetLevel()
}

func newCoordinator(conf *config.Config, em *emitter.Emitter, lp *loop.Loop, reporter metrics.Reporter, logger log.Logger) (*reload.Coordinator, error) {
	opener := livereload.NewOpener(&conf.Push, &conf.Tls, reporter, logger)
	c, err := reload.New(reload.Options{
		Emitter:   em,
		Verbosity: reload.ParseVerbosity(conf.Reload.Verbosity),
		Watch:     conf.Reload.Watch,
		Port:      conf.Reload.GetPort(),
		ClientURL: conf.Reload.ClientUrl,
		Metrics:   reporter,
	}, opener, lp, logger)
	if err != nil {
		return nil, err
	}
	for _, dir := range conf.Reload.OutputDirs {
		c.Configure(dir)
	}
	return c, nil
}
