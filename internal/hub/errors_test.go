package hub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
)

func TestHubError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("loading tokenizer: %w", &HubError{
		Op:   "GET /api/models/a",
		Kind: ErrNetwork,
		Err:  cause,
	})

	if !errors.Is(err, ErrNetwork) {
		t.Error("expected errors.Is(err, ErrNetwork)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is(err, cause)")
	}

	var hubErr *HubError
	if !errors.As(err, &hubErr) {
		t.Fatal("expected errors.As to find *HubError")
	}
	if hubErr.Op != "GET /api/models/a" {
		t.Errorf("unexpected Op %q", hubErr.Op)
	}
}

func TestHubError_Error(t *testing.T) {
	err := &HubError{Op: "POST /models/a", StatusCode: 503, Kind: ErrModelLoading, Body: "Model a is currently loading"}
	msg := err.Error()
	for _, want := range []string{"POST /models/a", "status 503", "model is loading", "currently loading"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrModelNotFound},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusServiceUnavailable, ErrModelLoading},
		{http.StatusInternalServerError, ErrHubResponse},
		{http.StatusTooManyRequests, ErrHubResponse},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			if got := kindForStatus(tt.status); got != tt.want {
				t.Errorf("kindForStatus(%d) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", &HubError{Kind: ErrModelNotFound}, "ModelNotFound"},
		{"wrapped loading", fmt.Errorf("infer: %w", &HubError{Kind: ErrModelLoading}), "ModelLoading"},
		{"remote code", fmt.Errorf("x: %w", ErrRemoteCodeRequired), "RemoteCodeRequired"},
		{"invalid id", fmt.Errorf("x: %w", ErrInvalidModelID), "InvalidModelID"},
		{"canceled", context.Canceled, "Canceled"},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), "Timeout"},
		{"foreign", errors.New("boom"), "*errors.errorString"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorKind(tt.err); got != tt.want {
				t.Errorf("ErrorKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       error
		wantStatus int
	}{
		{"status code", errors.New("request failed with status code 404"), ErrModelNotFound, 404},
		{"status colon", errors.New("GET https://huggingface.co/api/models/a-500/revision/main: status: 401"), ErrUnauthorized, 401},
		{"status text", errors.New("403 Forbidden"), ErrUnauthorized, 403},
		{"not found text", errors.New("Repository Not Found for url"), ErrModelNotFound, 404},
		{"loading", errors.New("unexpected status 503"), ErrModelLoading, 503},
		{"server error", errors.New("bad status 500 Internal Server Error"), ErrHubResponse, 500},
		{"no status", errors.New("malformed header"), ErrHubResponse, 0},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, ErrNetwork, 0},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), ErrTimeout, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fetchError("info a@main", tt.err)
			if !errors.Is(err, tt.want) {
				t.Fatalf("fetchError() = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Error("expected the cause to stay reachable")
			}
			var hubErr *HubError
			if !errors.As(err, &hubErr) {
				t.Fatalf("error %T is not a *HubError", err)
			}
			if hubErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", hubErr.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestFetchErrorCanceled(t *testing.T) {
	err := fetchError("info a@main", context.Canceled)
	if kind := ErrorKind(err); kind != "Canceled" {
		t.Errorf("ErrorKind() = %q, want Canceled", kind)
	}
}
