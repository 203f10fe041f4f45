package decompile

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/PentesterFlow/webete/internal/errors"
	"github.com/PentesterFlow/webete/internal/logger"
	"github.com/PentesterFlow/webete/internal/pyc"
)

func minimalPyc() []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint16(b, 3394)
	b[2], b[3] = '\r', '\n'
	return append(b, 0xe3)
}

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX tools")
	}
}

func TestNewExecDeparser_Default(t *testing.T) {
	d := NewExecDeparser("", nil, nil)
	if d.Command != DefaultCommand {
		t.Errorf("Command = %s, want %s", d.Command, DefaultCommand)
	}
}

func TestExecDeparser_StreamsStdout(t *testing.T) {
	requireUnix(t)
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	data := minimalPyc()
	hdr, err := pyc.ReadHeader(data)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	d := NewExecDeparser("cat", nil, nil)
	d.TempDir = t.TempDir()
	if err := d.Deparse(context.Background(), hdr, data, &out); err != nil {
		t.Fatalf("Deparse() error = %v", err)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Errorf("output = %v, want the bytecode file passed through", out.Bytes())
	}

	entries, _ := os.ReadDir(d.TempDir)
	if len(entries) != 0 {
		t.Errorf("temporary file should be removed, found %d entries", len(entries))
	}
}

func TestExecDeparser_ArgsBeforePath(t *testing.T) {
	requireUnix(t)
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	var out bytes.Buffer
	d := NewExecDeparser("sh", []string{"-c", `echo "$0" | grep -c '\.pyc$'`}, nil)
	d.TempDir = t.TempDir()
	if err := d.Deparse(context.Background(), pyc.Header{}, minimalPyc(), &out); err != nil {
		t.Fatalf("Deparse() error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "1" {
		t.Errorf("file path should be the last argument, got %q", out.String())
	}
}

func TestExecDeparser_Failure(t *testing.T) {
	requireUnix(t)
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	d := NewExecDeparser("sh", []string{"-c", "echo 'Unsupported Python version' >&2; exit 3"}, nil)
	d.TempDir = t.TempDir()
	err := d.Deparse(context.Background(), pyc.Header{}, minimalPyc(), io.Discard)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.GetErrorType(err) != errors.Decompile {
		t.Errorf("error type = %v, want decompile", errors.GetErrorType(err))
	}
	if !strings.Contains(err.Error(), "Unsupported Python version") {
		t.Errorf("error should carry stderr: %v", err)
	}
}

func TestExecDeparser_MissingCommand(t *testing.T) {
	d := NewExecDeparser(filepath.Join(t.TempDir(), "no-such-decompiler"), nil, nil)
	d.TempDir = t.TempDir()
	err := d.Deparse(context.Background(), pyc.Header{}, minimalPyc(), io.Discard)
	if errors.GetErrorType(err) != errors.Decompile {
		t.Errorf("error type = %v, want decompile", errors.GetErrorType(err))
	}
}

func TestFunc(t *testing.T) {
	var d Deparser = Func(func(ctx context.Context, hdr pyc.Header, data []byte, w io.Writer) error {
		_, err := io.WriteString(w, "print('hi')\n")
		return err
	})

	var out bytes.Buffer
	if err := d.Deparse(context.Background(), pyc.Header{}, nil, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "print('hi')\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestExecDeparser_HeaderOnly(t *testing.T) {
	data := minimalPyc()[:16]
	hdr, err := pyc.ReadHeader(data)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}

	d := NewExecDeparser("webete-command-that-does-not-exist", nil, nil)
	err = d.Deparse(context.Background(), hdr, data, io.Discard)
	if errors.GetErrorType(err) != errors.Format {
		t.Errorf("error type = %v, want format (command must not run)", errors.GetErrorType(err))
	}
}

func TestExecDeparser_LogsCommand(t *testing.T) {
	requireUnix(t)
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: logger.DebugLevel, Output: &buf})
	d := NewExecDeparser("cat", nil, log)

	data := minimalPyc()
	hdr, _ := pyc.ReadHeader(data)
	if err := d.Deparse(context.Background(), hdr, data, io.Discard); err != nil {
		t.Fatalf("Deparse() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"command":"cat"`) || !strings.Contains(buf.String(), "1 code bytes") {
		t.Errorf("log = %s", buf.String())
	}
}
