package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

// =============================================================================
// Text Tests
// =============================================================================

func TestText_Transcript(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf, true)

	r.Header("PYTHON")
	r.Request("http://example.test/app.cpython-26.pyc")
	r.Result(404)
	r.Request("http://example.test/__pycache__/app.cpython-37.pyc")
	r.Result(200)
	r.Decompiled("app.py")

	want := "\n" +
		"========== PYTHON ==========\n" +
		"[>] GET http://example.test/app.cpython-26.pyc\n" +
		"[<] 404 Not Found\n" +
		"[>] GET http://example.test/__pycache__/app.cpython-37.pyc\n" +
		"[<] 200 OK\n" +
		"Decompiled to \"app.py\"\n"
	if buf.String() != want {
		t.Errorf("output =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestText_Body(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf, true)

	r.Body([]byte("User-agent: *"))
	r.Body([]byte("Disallow: /x\n"))
	r.Body(nil)

	if buf.String() != "User-agent: *\nDisallow: /x\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestText_Paths(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf, true)

	r.Paths("Interesting paths", nil)
	if buf.Len() != 0 {
		t.Errorf("empty list should print nothing, got %q", buf.String())
	}

	r.Paths("Interesting paths", []string{"/admin/", "/backup"})
	if buf.String() != "Interesting paths:\n  /admin/\n  /backup\n" {
		t.Errorf("output = %q", buf.String())
	}
}

// =============================================================================
// JSON Tests
// =============================================================================

func decodeAll(t *testing.T, data []byte) []Event {
	t.Helper()
	var events []Event
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		events = append(events, e)
	}
	return events
}

func TestJSON_Events(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSON(&buf)

	r.Header("robots.txt")
	r.Request("http://example.test/robots.txt")
	r.Result(404)
	r.Paths("none", nil)

	events := decodeAll(t, buf.Bytes())
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}

	types := []string{"header", "request", "result"}
	for i, want := range types {
		if events[i].Type != want {
			t.Errorf("events[%d].Type = %s, want %s", i, events[i].Type, want)
		}
	}
	if events[2].URL != "http://example.test/robots.txt" || events[2].StatusCode != 404 {
		t.Errorf("result event = %+v", events[2])
	}
	if events[0].Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

type failingWriter struct {
	writes int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("disk full")
}

func TestJSON_WriteError(t *testing.T) {
	w := &failingWriter{}
	r := NewJSON(w)

	if r.Err() != nil {
		t.Fatalf("Err() = %v before any write", r.Err())
	}

	r.Header("PYTHON")
	r.Request("http://example.test/app.cpython-26.pyc")
	r.Result(404)

	if r.Err() == nil {
		t.Fatal("Err() should report the write failure")
	}
	if w.writes != 1 {
		t.Errorf("writes = %d, want 1 (stop after first failure)", w.writes)
	}
}

func TestJSON_BodyAndDecompiled(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSON(&buf)
	r.Body([]byte("Disallow: /x\n"))
	r.Decompiled("pkg/app.py")

	events := decodeAll(t, buf.Bytes())
	if events[0].Body != "Disallow: /x\n" {
		t.Errorf("body = %q", events[0].Body)
	}
	if events[1].Path != "pkg/app.py" {
		t.Errorf("path = %q", events[1].Path)
	}
}

// =============================================================================
// New Tests
// =============================================================================

func TestNew(t *testing.T) {
	if _, ok := New(Config{Format: FormatJSON, Output: &bytes.Buffer{}}).(*JSON); !ok {
		t.Error("json format should build a JSON reporter")
	}
	if _, ok := New(Config{Output: &bytes.Buffer{}}).(*Text); !ok {
		t.Error("default format should build a Text reporter")
	}
}

func TestValidFormat(t *testing.T) {
	if !ValidFormat(FormatText) || !ValidFormat(FormatJSON) {
		t.Error("known formats should be valid")
	}
	if ValidFormat("xml") {
		t.Error("xml should be invalid")
	}
}
