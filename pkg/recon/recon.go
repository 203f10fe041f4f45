package recon

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PentesterFlow/webete/internal/decompile"
	"github.com/PentesterFlow/webete/internal/errors"
	httpc "github.com/PentesterFlow/webete/internal/http"
	"github.com/PentesterFlow/webete/internal/logger"
	"github.com/PentesterFlow/webete/internal/metrics"
	"github.com/PentesterFlow/webete/internal/probe"
	"github.com/PentesterFlow/webete/internal/pyc"
	"github.com/PentesterFlow/webete/internal/report"
	"github.com/PentesterFlow/webete/internal/robots"
	"github.com/PentesterFlow/webete/internal/store"
)

// Runner executes actions against one target.
type Runner struct {
	config    *Config
	log       *logger.Logger
	client    *httpc.Client
	reporter  report.Reporter
	reportOut io.Writer
	deparser  decompile.Deparser
	journal   store.Journal
	ownStore  bool
	metrics   *metrics.Collector
}

// New creates a runner.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{
		config: DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if r.log == nil {
		r.log = logger.New(r.config.LoggerConfig())
	}
	r.log = r.log.WithComponent("recon")

	if !strings.HasSuffix(r.config.Target, "/") {
		r.log.Warnf("target %q does not end with '/', paths are appended as-is", r.config.Target)
	}

	r.client = httpc.NewClient(httpc.Config{
		Timeout:           r.config.HTTP.Timeout,
		UserAgent:         r.config.HTTP.UserAgent,
		Headers:           r.config.HTTP.Headers,
		SkipTLSVerify:     r.config.HTTP.SkipTLSVerify,
		RequestsPerSecond: r.config.HTTP.RequestsPerSecond,
		Cookies:           r.config.HTTP.Cookies,
		MaxBodySize:       r.config.HTTP.MaxBodySize,
	})
	r.client.SetBasicAuth(ResolveBasicAuth(r.config.Auth, r.log))

	if r.reporter == nil {
		r.reporter = report.New(report.Config{
			Format:  r.config.Report.Format,
			NoColor: r.config.Report.NoColor,
			Output:  r.reportOut,
		})
	}

	if r.deparser == nil {
		r.deparser = decompile.NewExecDeparser(r.config.Decompiler.Command, r.config.Decompiler.Args, r.log)
	}

	if r.journal == nil && r.config.StorePath != "" {
		s, err := store.Open(r.config.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open findings journal: %w", err)
		}
		r.journal = s
		r.ownStore = true
	}

	r.metrics = metrics.New()

	return r, nil
}

// ResolveBasicAuth turns the configured credentials into what is sent.
// Neither half supplied means no Authorization header. Exactly one half
// supplied is accepted with a warning and the other half is sent empty.
func ResolveBasicAuth(creds Credentials, log *logger.Logger) *httpc.BasicAuth {
	if log == nil {
		log = logger.Nop()
	}
	switch {
	case creds.Username == "" && creds.Password == "":
		return nil
	case creds.Password == "":
		log.Warn("basic auth username given without password, using an empty password")
	case creds.Username == "":
		log.Warn("basic auth password given without username, using an empty username")
	}
	return &httpc.BasicAuth{Username: creds.Username, Password: creds.Password}
}

// Run dispatches to exactly one action. file is only used by ActionPython.
func (r *Runner) Run(ctx context.Context, action Action, file string) error {
	defer r.logStats()
	defer r.checkReporter()

	switch action {
	case ActionAuto:
		_, err := r.RunAuto(ctx)
		return err
	case ActionPython:
		_, err := r.RunPython(ctx, file)
		return err
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

// RunAuto fetches robots.txt below the target and reports the outcome. Any
// status code is a successful run.
func (r *Runner) RunAuto(ctx context.Context) (*AutoResult, error) {
	r.reporter.Header("robots.txt")

	robotsURL := r.config.Target + "robots.txt"
	r.reporter.Request(robotsURL)

	resp, err := r.client.Get(ctx, robotsURL)
	if err != nil {
		r.metrics.RecordError(errors.GetErrorType(err).String())
		return nil, err
	}
	r.metrics.RecordResponse(resp.StatusCode, len(resp.Body), resp.Duration)
	r.log.ProbeEvent(robotsURL, resp.StatusCode, len(resp.Body), resp.Duration)
	r.reporter.Result(resp.StatusCode)

	result := &AutoResult{URL: robotsURL, StatusCode: resp.StatusCode}

	if resp.StatusCode == 200 {
		result.Body = resp.Body
		r.reporter.Body(resp.Body)

		parsed, err := robots.Parse(bytes.NewReader(resp.Body))
		if err != nil {
			r.log.WithError(err).Debug("robots.txt could not be fully parsed")
		}
		if parsed != nil {
			result.Robots = &RobotsSummary{
				InterestingPaths: parsed.InterestingPaths(),
				Sitemaps:         parsed.Sitemaps,
				CrawlDelay:       parsed.CrawlDelay,
			}
			r.reporter.Paths("Interesting paths", result.Robots.InterestingPaths)
			r.reporter.Paths("Sitemaps", result.Robots.Sitemaps)
		}
	}

	r.record(&Finding{
		Action:     string(ActionAuto),
		URL:        robotsURL,
		StatusCode: resp.StatusCode,
		Found:      resp.StatusCode == 200,
		Requests:   1,
	})

	return result, nil
}

// RunPython guesses the compiled form of fpath, downloads the first
// candidate the server serves and writes the decompiled source to
// <output dir>/<normalized fpath>.py. When no candidate is served the result
// has Found == false and nothing is written.
func (r *Runner) RunPython(ctx context.Context, fpath string) (*PythonResult, error) {
	r.reporter.Header("PYTHON")

	exts := r.config.Python.Extensions
	normalized := pyc.StripExt(fpath, pyc.SourceExtensions(exts))
	dir, name := pyc.Split(normalized)

	guesses := pyc.GuessSet{
		Name:       name,
		Versions:   r.config.Python.Versions,
		Extensions: exts,
	}.All()

	result := &PythonResult{Normalized: normalized}

	prober := probe.New(r.client, r.reporter, r.log)
	prober.OnResponse(func(resp *httpc.Response) {
		r.metrics.RecordResponse(resp.StatusCode, len(resp.Body), resp.Duration)
	})

	hit, ok, err := prober.First(ctx, r.config.Target+dir, guesses)
	if err != nil {
		r.metrics.RecordError(errors.GetErrorType(err).String())
		return nil, err
	}
	if !ok {
		result.Tried = len(guesses)
		r.log.Debugf("no compiled file found for %s", normalized)
		r.record(&Finding{Action: string(ActionPython), Requests: result.Tried})
		return result, nil
	}

	result.Found = true
	result.Hit = hit
	result.Tried = hit.Requests

	hdr, err := pyc.ReadHeader(hit.Body)
	if err != nil {
		return nil, err
	}
	result.Header = hdr
	r.log.Debugf("%s is python %s bytecode (pypy=%t)", hit.Candidate, hdr.Version(), hdr.PyPy)
	if !strings.Contains(hit.Candidate, ".cpython-"+hdr.Tag()+".") {
		r.log.WithURL(hit.URL).Warnf("%s holds python %s bytecode", hit.Candidate, hdr.Version())
	}

	outPath, err := r.writeSource(ctx, normalized, hdr, hit.Body)
	if err != nil {
		return nil, err
	}
	result.OutputPath = outPath
	r.reporter.Decompiled(outPath)

	r.record(&Finding{
		Action:     string(ActionPython),
		URL:        hit.URL,
		StatusCode: hit.StatusCode,
		Found:      true,
		Requests:   hit.Requests,
		OutputPath: outPath,
		Version:    hdr.Version(),
	})

	return result, nil
}

// OutputPath returns where the source for a normalized path is written.
func (r *Runner) OutputPath(normalized string) string {
	return filepath.Join(r.config.OutputDir, filepath.FromSlash(normalized)+".py")
}

func (r *Runner) writeSource(ctx context.Context, normalized string, hdr pyc.Header, data []byte) (string, error) {
	outPath := r.OutputPath(normalized)

	if outDir := filepath.Dir(outPath); outDir != "." {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return "", errors.NewIOError(outDir, "mkdir", err)
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return "", errors.NewIOError(outPath, "create", err)
	}
	defer f.Close()

	if err := r.deparser.Deparse(ctx, hdr, data, f); err != nil {
		return "", fmt.Errorf("decompiling into %s: %w", outPath, err)
	}

	if err := f.Close(); err != nil {
		return "", errors.NewIOError(outPath, "close", err)
	}
	return outPath, nil
}

func (r *Runner) record(f *Finding) {
	if r.journal == nil {
		return
	}
	f.Target = r.config.Target
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	if err := r.journal.Append(f); err != nil {
		r.log.WithError(err).Warn("failed to record finding")
	}
}

// checkReporter warns when the reporter could not write its output.
func (r *Runner) checkReporter() {
	if e, ok := r.reporter.(interface{ Err() error }); ok {
		if err := e.Err(); err != nil {
			r.log.WithError(err).Warn("report output incomplete")
		}
	}
}

func (r *Runner) logStats() {
	if r.log.Level() > logger.DebugLevel {
		return
	}
	r.log.StatsEvent(r.metrics.Snapshot().Summary())
}

// Metrics returns the run's counters.
func (r *Runner) Metrics() *metrics.Snapshot {
	return r.metrics.Snapshot()
}

// Config returns the effective configuration.
func (r *Runner) Config() *Config {
	return r.config
}

// Close releases the HTTP client and any journal the runner opened itself.
func (r *Runner) Close() error {
	r.client.Close()
	if r.ownStore {
		return r.journal.Close()
	}
	return nil
}
