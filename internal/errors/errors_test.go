package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
)

// =============================================================================
// ErrorType Tests
// =============================================================================

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{Unknown, "unknown"},
		{Network, "network"},
		{Timeout, "timeout"},
		{Cancelled, "cancelled"},
		{Auth, "auth"},
		{NotFound, "not_found"},
		{ClientError, "client_error"},
		{ServerError, "server_error"},
		{Format, "format"},
		{Decompile, "decompile"},
		{IO, "io"},
		{TooLarge, "too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.errType.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// ProbeError Tests
// =============================================================================

func TestProbeError_Error(t *testing.T) {
	err := New(Network, "http://example.test/", "fetch", "connection failed", nil)

	errStr := err.Error()
	if !strings.Contains(errStr, "network") {
		t.Errorf("Error() should contain type: %s", errStr)
	}
	if !strings.Contains(errStr, "http://example.test/") {
		t.Errorf("Error() should contain URL: %s", errStr)
	}
}

func TestProbeError_Error_WithCause(t *testing.T) {
	cause := errors.New("boom")
	err := New(Decompile, "", "deparse", "failed", cause)

	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Error() should contain cause: %s", err.Error())
	}
}

func TestProbeError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewNetworkError("http://example.test/", "request", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestProbeError_Is(t *testing.T) {
	err := NewTimeoutError("http://a/", "request", nil)

	if !errors.Is(err, &ProbeError{Type: Timeout}) {
		t.Error("should match same type")
	}
	if errors.Is(err, &ProbeError{Type: Network}) {
		t.Error("should not match different type")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *ProbeError
		want ErrorType
	}{
		{"network", NewNetworkError("u", "op", nil), Network},
		{"timeout", NewTimeoutError("u", "op", nil), Timeout},
		{"cancelled", NewCancelledError("u", "op", nil), Cancelled},
		{"format", NewFormatError("op", "bad magic", nil), Format},
		{"decompile", NewDecompileError("op", nil), Decompile},
		{"io", NewIOError("/tmp/x", "op", nil), IO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.want {
				t.Errorf("Type = %v, want %v", tt.err.Type, tt.want)
			}
		})
	}
}

// =============================================================================
// Categorize Tests
// =============================================================================

func TestCategorize_Nil(t *testing.T) {
	if Categorize(nil, "u") != nil {
		t.Error("Categorize(nil) should be nil")
	}
}

func TestCategorize_ProbeError(t *testing.T) {
	orig := NewFormatError("read_header", "short", nil)
	wrapped := fmt.Errorf("wrapped: %w", orig)

	if got := Categorize(wrapped, "u"); got != orig {
		t.Errorf("Categorize should return the existing ProbeError, got %v", got)
	}
}

func TestCategorize_ContextCanceled(t *testing.T) {
	err := Categorize(fmt.Errorf("get: %w", context.Canceled), "u")
	if err.Type != Cancelled {
		t.Errorf("Type = %v, want cancelled", err.Type)
	}
}

func TestCategorize_Deadline(t *testing.T) {
	err := Categorize(context.DeadlineExceeded, "u")
	if err.Type != Timeout {
		t.Errorf("Type = %v, want timeout", err.Type)
	}
}

func TestCategorize_OpError(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}
	err := Categorize(opErr, "u")
	if err.Type != Network {
		t.Errorf("Type = %v, want network", err.Type)
	}
}

func TestCategorize_DNSError(t *testing.T) {
	err := Categorize(&net.DNSError{Err: "no such host", Name: "nope.test"}, "u")
	if err.Type != Network {
		t.Errorf("Type = %v, want network", err.Type)
	}
}

func TestCategorize_Unknown(t *testing.T) {
	err := Categorize(errors.New("something odd"), "u")
	if err.Type != Unknown {
		t.Errorf("Type = %v, want unknown", err.Type)
	}
	if err.URL != "u" {
		t.Errorf("URL = %q, want u", err.URL)
	}
}

func TestCategorizeHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
		isNil  bool
	}{
		{200, Unknown, true},
		{302, Unknown, true},
		{401, Auth, false},
		{403, Auth, false},
		{404, NotFound, false},
		{418, ClientError, false},
		{500, ServerError, false},
		{503, ServerError, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := CategorizeHTTPStatus(tt.status, "u")
			if tt.isNil {
				if err != nil {
					t.Errorf("CategorizeHTTPStatus(%d) = %v, want nil", tt.status, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("CategorizeHTTPStatus(%d) = nil", tt.status)
			}
			if err.Type != tt.want {
				t.Errorf("Type = %v, want %v", err.Type, tt.want)
			}
			if err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.status)
			}
		})
	}
}

func TestGetErrorType(t *testing.T) {
	if GetErrorType(errors.New("plain")) != Unknown {
		t.Error("plain error should be Unknown")
	}
	if GetErrorType(fmt.Errorf("x: %w", NewIOError("p", "op", nil))) != IO {
		t.Error("wrapped IO error should be IO")
	}
}
