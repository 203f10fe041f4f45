// Package decompile hands fetched bytecode to an external decompiler.
package decompile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/PentesterFlow/webete/internal/errors"
	"github.com/PentesterFlow/webete/internal/logger"
	"github.com/PentesterFlow/webete/internal/pyc"
)

// DefaultCommand is the decompiler run when none is configured.
const DefaultCommand = "uncompyle6"

// Deparser reconstructs source text from a compiled file.
type Deparser interface {
	// Deparse writes the source recovered from data to w. hdr is the
	// already-parsed container header of data.
	Deparse(ctx context.Context, hdr pyc.Header, data []byte, w io.Writer) error
}

// ExecDeparser runs an external decompiler on a temporary copy of the
// bytecode file and streams its standard output.
type ExecDeparser struct {
	Command string
	Args    []string // placed before the file path
	TempDir string
	log     *logger.Logger
}

// NewExecDeparser creates an ExecDeparser. An empty command selects
// DefaultCommand.
func NewExecDeparser(command string, args []string, log *logger.Logger) *ExecDeparser {
	if command == "" {
		command = DefaultCommand
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ExecDeparser{
		Command: command,
		Args:    args,
		log:     log.WithComponent("decompile"),
	}
}

// Deparse implements Deparser.
func (d *ExecDeparser) Deparse(ctx context.Context, hdr pyc.Header, data []byte, w io.Writer) error {
	if len(hdr.Code(data)) == 0 {
		return errors.NewFormatError("deparse", "no code object after the header", nil)
	}

	tmp, err := os.CreateTemp(d.TempDir, "webete-*.pyc")
	if err != nil {
		return errors.NewIOError(d.TempDir, "temp_create", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.NewIOError(tmp.Name(), "temp_write", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewIOError(tmp.Name(), "temp_close", err)
	}

	args := append(append([]string{}, d.Args...), tmp.Name())
	d.log.WithField("command", d.Command).Debugf("running %s (python %s, %d code bytes)",
		strings.Join(args, " "), hdr.Version(), len(hdr.Code(data)))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.Command, args...)
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return errors.NewDecompileError(d.Command, err)
	}
	return nil
}

// Func adapts a function to the Deparser interface.
type Func func(ctx context.Context, hdr pyc.Header, data []byte, w io.Writer) error

// Deparse implements Deparser.
func (f Func) Deparse(ctx context.Context, hdr pyc.Header, data []byte, w io.Writer) error {
	return f(ctx, hdr, data, w)
}
