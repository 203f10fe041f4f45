package report

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event is one line of JSON output.
type Event struct {
	Type       string    `json:"type"`
	Name       string    `json:"name,omitempty"`
	URL        string    `json:"url,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Body       string    `json:"body,omitempty"`
	Title      string    `json:"title,omitempty"`
	Paths      []string  `json:"paths,omitempty"`
	Path       string    `json:"path,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// JSON writes one Event per line. After the first write error it stops
// writing and reports the error from Err.
type JSON struct {
	mu      sync.Mutex
	encoder *json.Encoder
	lastURL string
	err     error
	now     func() time.Time
}

// NewJSON creates a JSON reporter.
func NewJSON(w io.Writer) *JSON {
	return &JSON{encoder: json.NewEncoder(w), now: time.Now}
}

func (j *JSON) emit(e Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	e.Timestamp = j.now()
	j.err = j.encoder.Encode(e)
}

// Err returns the first error hit while writing events.
func (j *JSON) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Header emits a "header" event.
func (j *JSON) Header(name string) {
	j.emit(Event{Type: "header", Name: name})
}

// Request emits a "request" event and remembers url for the next result.
func (j *JSON) Request(url string) {
	j.mu.Lock()
	j.lastURL = url
	j.mu.Unlock()
	j.emit(Event{Type: "request", URL: url})
}

// Result emits a "result" event for the last requested URL.
func (j *JSON) Result(statusCode int) {
	j.mu.Lock()
	url := j.lastURL
	j.mu.Unlock()
	j.emit(Event{Type: "result", URL: url, StatusCode: statusCode})
}

// Body emits a "body" event.
func (j *JSON) Body(body []byte) {
	j.emit(Event{Type: "body", Body: string(body)})
}

// Paths emits a "paths" event; an empty list emits nothing.
func (j *JSON) Paths(title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	j.emit(Event{Type: "paths", Title: title, Paths: paths})
}

// Decompiled emits a "decompiled" event.
func (j *JSON) Decompiled(path string) {
	j.emit(Event{Type: "decompiled", Path: path})
}
