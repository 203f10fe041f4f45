package recon

import (
	"io"
	"time"

	"github.com/PentesterFlow/webete/internal/decompile"
	"github.com/PentesterFlow/webete/internal/logger"
	"github.com/PentesterFlow/webete/internal/report"
	"github.com/PentesterFlow/webete/internal/store"
)

// Option is a functional option for configuring the Runner.
type Option func(*Runner) error

// WithConfig replaces the whole configuration.
func WithConfig(config *Config) Option {
	return func(r *Runner) error {
		r.config = config
		return nil
	}
}

// WithTarget sets the target base URL.
func WithTarget(url string) Option {
	return func(r *Runner) error {
		r.config.Target = url
		return nil
	}
}

// WithBasicAuth sets basic-auth credentials.
func WithBasicAuth(username, password string) Option {
	return func(r *Runner) error {
		r.config.Auth = Credentials{Username: username, Password: password}
		return nil
	}
}

// WithTimeout sets the per-request timeout. Zero means none.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Runner) error {
		r.config.HTTP.Timeout = timeout
		return nil
	}
}

// WithRateLimit caps requests per second. Zero means unlimited.
func WithRateLimit(rps float64) Option {
	return func(r *Runner) error {
		r.config.HTTP.RequestsPerSecond = rps
		return nil
	}
}

// WithOutputDir sets where decompiled sources are written.
func WithOutputDir(dir string) Option {
	return func(r *Runner) error {
		r.config.OutputDir = dir
		return nil
	}
}

// WithVersions overrides the runtime tags probed.
func WithVersions(versions ...string) Option {
	return func(r *Runner) error {
		r.config.Python.Versions = versions
		return nil
	}
}

// WithExtensions overrides the bytecode extensions probed.
func WithExtensions(exts ...string) Option {
	return func(r *Runner) error {
		r.config.Python.Extensions = exts
		return nil
	}
}

// WithVerbose toggles debug logging when the runner builds its own logger.
func WithVerbose(verbose bool) Option {
	return func(r *Runner) error {
		r.config.Verbose = verbose
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) error {
		r.log = l
		return nil
	}
}

// WithReporter sets the reporter.
func WithReporter(rep report.Reporter) Option {
	return func(r *Runner) error {
		r.reporter = rep
		return nil
	}
}

// WithReportOutput sends the configured reporter's output to w.
func WithReportOutput(w io.Writer) Option {
	return func(r *Runner) error {
		r.reportOut = w
		return nil
	}
}

// WithDeparser replaces the external decompiler.
func WithDeparser(d decompile.Deparser) Option {
	return func(r *Runner) error {
		r.deparser = d
		return nil
	}
}

// WithJournal records findings into j.
func WithJournal(j store.Journal) Option {
	return func(r *Runner) error {
		r.journal = j
		return nil
	}
}
