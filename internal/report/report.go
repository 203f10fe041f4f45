// Package report prints what webete is doing to standard output.
package report

import (
	"io"
	"os"
)

// Reporter prints phase banners and request/response summaries. It
// satisfies probe.Observer.
type Reporter interface {
	// Header announces a phase, e.g. "robots.txt" or "PYTHON".
	Header(name string)
	// Request announces a GET about to be issued.
	Request(url string)
	// Result reports the status code of the last request.
	Result(statusCode int)
	// Body prints a response body.
	Body(body []byte)
	// Paths prints a titled list.
	Paths(title string, paths []string)
	// Decompiled reports the file recovered source was written to.
	Decompiled(path string)
}

// Format selects a Reporter implementation.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds reporter configuration.
type Config struct {
	Format  Format
	NoColor bool
	Output  io.Writer
}

// New returns the reporter for config.Format, text by default.
func New(config Config) Reporter {
	w := config.Output
	if w == nil {
		w = os.Stdout
	}
	switch config.Format {
	case FormatJSON:
		return NewJSON(w)
	default:
		return NewText(w, config.NoColor)
	}
}

// ValidFormat reports whether f names a known format.
func ValidFormat(f Format) bool {
	return f == FormatText || f == FormatJSON
}
