// Package metrics counts what a single webete run did.
package metrics

import (
	"strconv"
	"sync"
	"time"
)

// Collector collects per-run counters. It is safe for concurrent use even
// though webete issues requests one at a time.
type Collector struct {
	mu sync.Mutex

	requests     int64
	errors       int64
	bytes        int64
	responseTime time.Duration
	statusCodes  map[int]int64
	errorTypes   map[string]int64

	startTime time.Time
	now       func() time.Time
}

// New creates a new metrics collector.
func New() *Collector {
	return &Collector{
		statusCodes: make(map[int]int64),
		errorTypes:  make(map[string]int64),
		startTime:   time.Now(),
		now:         time.Now,
	}
}

// RecordResponse records a completed request.
func (c *Collector) RecordResponse(statusCode int, size int, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	c.bytes += int64(size)
	c.responseTime += d
	c.statusCodes[statusCode]++
}

// RecordError records a request that failed before a response arrived.
func (c *Collector) RecordError(errorType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	c.errors++
	c.errorTypes[errorType]++
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests            int64
	Errors              int64
	Bytes               int64
	AverageResponseTime time.Duration
	StatusCodes         map[int]int64
	ErrorTypes          map[string]int64
	Uptime              time.Duration
}

// Snapshot returns the current counters.
func (c *Collector) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Snapshot{
		Requests:    c.requests,
		Errors:      c.errors,
		Bytes:       c.bytes,
		StatusCodes: make(map[int]int64, len(c.statusCodes)),
		ErrorTypes:  make(map[string]int64, len(c.errorTypes)),
		Uptime:      c.now().Sub(c.startTime),
	}
	if answered := c.requests - c.errors; answered > 0 {
		s.AverageResponseTime = c.responseTime / time.Duration(answered)
	}
	for k, v := range c.statusCodes {
		s.StatusCodes[k] = v
	}
	for k, v := range c.errorTypes {
		s.ErrorTypes[k] = v
	}
	return s
}

// Summary flattens the snapshot for structured logging.
func (s *Snapshot) Summary() map[string]interface{} {
	byStatus := make(map[string]int64, len(s.StatusCodes))
	for code, n := range s.StatusCodes {
		byStatus[strconv.Itoa(code)] = n
	}

	return map[string]interface{}{
		"requests":          s.Requests,
		"errors":            s.Errors,
		"bytes":             s.Bytes,
		"avg_response_time": s.AverageResponseTime.String(),
		"status_codes":      byStatus,
		"uptime":            s.Uptime.Round(time.Millisecond).String(),
	}
}
