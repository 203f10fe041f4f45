package report

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fatih/color"
)

// Text writes human-readable, optionally colored lines.
type Text struct {
	w       io.Writer
	banner  *color.Color
	request *color.Color
	ok      *color.Color
	redir   *color.Color
	fail    *color.Color
	other   *color.Color
	done    *color.Color
}

// NewText creates a text reporter. Color also turns off on its own when
// standard output is not a terminal.
func NewText(w io.Writer, noColor bool) *Text {
	t := &Text{
		w:       w,
		banner:  color.New(color.FgCyan, color.Bold),
		request: color.New(color.FgBlue),
		ok:      color.New(color.FgGreen),
		redir:   color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		other:   color.New(color.FgMagenta),
		done:    color.New(color.FgGreen, color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{t.banner, t.request, t.ok, t.redir, t.fail, t.other, t.done} {
			c.DisableColor()
		}
	}
	return t
}

// Header prints a banner line.
func (t *Text) Header(name string) {
	line := strings.Repeat("=", 10)
	fmt.Fprintln(t.w)
	t.banner.Fprintf(t.w, "%s %s %s\n", line, name, line)
}

// Request prints "[>] GET url".
func (t *Text) Request(url string) {
	t.request.Fprintf(t.w, "[>] GET %s\n", url)
}

// Result prints the status code and text, colored by class.
func (t *Text) Result(statusCode int) {
	c := t.other
	switch {
	case statusCode >= 200 && statusCode < 300:
		c = t.ok
	case statusCode >= 300 && statusCode < 400:
		c = t.redir
	case statusCode >= 400 && statusCode < 500:
		c = t.fail
	}
	c.Fprintf(t.w, "[<] %d %s\n", statusCode, http.StatusText(statusCode))
}

// Body prints body as-is, ending it with a newline.
func (t *Text) Body(body []byte) {
	t.w.Write(body)
	if len(body) > 0 && body[len(body)-1] != '\n' {
		fmt.Fprintln(t.w)
	}
}

// Paths prints title and one indented line per path.
func (t *Text) Paths(title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(t.w, "%s:\n", title)
	for _, p := range paths {
		fmt.Fprintf(t.w, "  %s\n", p)
	}
}

// Decompiled prints where the recovered source went.
func (t *Text) Decompiled(path string) {
	t.done.Fprintf(t.w, "Decompiled to \"%s\"\n", path)
}
