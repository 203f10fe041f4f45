// Package errors provides the error taxonomy used by webete.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorType categorizes errors for reporting.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// Network represents network-related errors (DNS, connection, TLS).
	Network
	// Timeout represents timeout errors.
	Timeout
	// Cancelled represents context cancellation.
	Cancelled
	// Auth represents 401/403 responses.
	Auth
	// NotFound represents 404 responses.
	NotFound
	// ClientError represents other 4xx responses.
	ClientError
	// ServerError represents 5xx responses.
	ServerError
	// Format represents a malformed or unsupported bytecode container.
	Format
	// Decompile represents a failure of the external decompiler.
	Decompile
	// IO represents local filesystem failures.
	IO
	// TooLarge represents a response body over the configured limit.
	TooLarge
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case Network:
		return "network"
	case Timeout:
		return "timeout"
	case Cancelled:
		return "cancelled"
	case Auth:
		return "auth"
	case NotFound:
		return "not_found"
	case ClientError:
		return "client_error"
	case ServerError:
		return "server_error"
	case Format:
		return "format"
	case Decompile:
		return "decompile"
	case IO:
		return "io"
	case TooLarge:
		return "too_large"
	default:
		return "unknown"
	}
}

// ProbeError represents a categorized error raised while probing a target
// or processing what was fetched.
type ProbeError struct {
	Type       ErrorType
	URL        string
	Operation  string
	Message    string
	Cause      error
	StatusCode int
}

// Error implements the error interface.
func (e *ProbeError) Error() string {
	where := e.URL
	if where == "" {
		where = "-"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, where, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, where, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// Is matches another *ProbeError of the same type.
func (e *ProbeError) Is(target error) bool {
	t, ok := target.(*ProbeError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// New creates a new ProbeError.
func New(errType ErrorType, url, operation, message string, cause error) *ProbeError {
	return &ProbeError{
		Type:      errType,
		URL:       url,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(url, operation string, cause error) *ProbeError {
	return New(Network, url, operation, "network failure", cause)
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(url, operation string, cause error) *ProbeError {
	return New(Timeout, url, operation, "request timed out", cause)
}

// NewCancelledError creates a cancelled error.
func NewCancelledError(url, operation string, cause error) *ProbeError {
	return New(Cancelled, url, operation, "operation cancelled", cause)
}

// NewFormatError creates a bytecode format error.
func NewFormatError(operation, message string, cause error) *ProbeError {
	return New(Format, "", operation, message, cause)
}

// NewDecompileError creates a decompiler error.
func NewDecompileError(operation string, cause error) *ProbeError {
	return New(Decompile, "", operation, "external decompiler failed", cause)
}

// NewIOError creates a local filesystem error.
func NewIOError(path, operation string, cause error) *ProbeError {
	return New(IO, path, operation, "filesystem failure", cause)
}

// Categorize determines the error type from a transport error.
func Categorize(err error, url string) *ProbeError {
	if err == nil {
		return nil
	}

	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		return probeErr
	}

	if errors.Is(err, context.Canceled) {
		return NewCancelledError(url, "request", err)
	}

	if isTimeout(err) {
		return NewTimeoutError(url, "request", err)
	}

	if isNetworkError(err) {
		return NewNetworkError(url, "request", err)
	}

	return New(Unknown, url, "request", err.Error(), err)
}

// CategorizeHTTPStatus describes a non-2xx status. It returns nil for
// anything below 400.
func CategorizeHTTPStatus(statusCode int, url string) *ProbeError {
	var e *ProbeError
	switch {
	case statusCode == 401:
		e = New(Auth, url, "request", "unauthorized", nil)
	case statusCode == 403:
		e = New(Auth, url, "request", "forbidden", nil)
	case statusCode == 404:
		e = New(NotFound, url, "request", "not found", nil)
	case statusCode >= 500:
		e = New(ServerError, url, "request", fmt.Sprintf("server returned %d", statusCode), nil)
	case statusCode >= 400:
		e = New(ClientError, url, "request", fmt.Sprintf("client error %d", statusCode), nil)
	default:
		return nil
	}
	e.StatusCode = statusCode
	return e
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "tls:") ||
		strings.Contains(errStr, "x509:") ||
		strings.Contains(errStr, "dial tcp")
}

// GetErrorType extracts the error type from an error.
func GetErrorType(err error) ErrorType {
	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		return probeErr.Type
	}
	return Unknown
}
