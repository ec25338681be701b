// Package plugin exposes a coordinator through the hooks a bundler calls
// during a build.
package plugin

import (
	"path/filepath"

	"github.com/livereload-universal/relay/reload"
)

type OutputOptions struct {
	Dir  string
	File string
}

// BaseDir is the output directory, or the directory of the output file
// when no directory is set.
func (o OutputOptions) BaseDir() string {
	if o.Dir != "" {
		return o.Dir
	}
	if o.File != "" {
		if abs, err := filepath.Abs(o.File); err == nil {
			return filepath.Dir(abs)
		}
		return filepath.Dir(o.File)
	}
	return ""
}

type Plugin struct {
	coordinator *reload.Coordinator
}

func New(c *reload.Coordinator) *Plugin {
	return &Plugin{coordinator: c}
}

func (p *Plugin) Name() string {
	return reload.Name
}

func (p *Plugin) OutputOptions(opts OutputOptions) {
	p.coordinator.Configure(opts.BaseDir())
}

func (p *Plugin) Banner() string {
	return p.coordinator.Banner()
}

func (p *Plugin) GenerateBundle() {
	p.coordinator.BundleGenerated()
}
