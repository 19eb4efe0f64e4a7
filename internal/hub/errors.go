package hub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// Sentinel errors for hub operations.
// Use errors.Is() to check for specific error conditions.
var (
	// ErrModelNotFound indicates the repository or file does not exist (HTTP 404).
	ErrModelNotFound = errors.New("hub: model not found")

	// ErrUnauthorized indicates a missing, invalid or insufficient token (HTTP 401/403).
	ErrUnauthorized = errors.New("hub: unauthorized")

	// ErrInvalidModelID indicates an empty or malformed repository id.
	ErrInvalidModelID = errors.New("hub: invalid model id")

	// ErrModelLoading indicates the inference endpoint is still loading the model (HTTP 503).
	ErrModelLoading = errors.New("hub: model is loading")

	// ErrHubResponse indicates any other non-success HTTP status.
	ErrHubResponse = errors.New("hub: unexpected response status")

	// ErrNetwork indicates a transport failure.
	ErrNetwork = errors.New("hub: network error")

	// ErrTimeout indicates the request deadline was exceeded.
	ErrTimeout = errors.New("hub: request timed out")

	// ErrInvalidResponse indicates a body that could not be decoded or did not fit the model.
	ErrInvalidResponse = errors.New("hub: invalid response")

	// ErrMissingArtifact indicates a required file is absent from the repository.
	ErrMissingArtifact = errors.New("hub: required file missing")

	// ErrRemoteCodeRequired indicates the repository ships custom code and TrustRemoteCode was not set.
	ErrRemoteCodeRequired = errors.New("hub: repository requires trust_remote_code")

	// ErrUnsupportedArchitecture indicates the model has no sequence-classification head.
	ErrUnsupportedArchitecture = errors.New("hub: not a sequence classification model")

	// ErrEmptyInput indicates an empty text was given to the tokenizer.
	ErrEmptyInput = errors.New("hub: empty input text")
)

// HubError describes a failed hub request. It unwraps to both its Kind
// sentinel and the underlying cause, if any.
type HubError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
	Kind       error
	Err        error
}

func (e *HubError) Error() string {
	msg := e.Op
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Kind != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Kind)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes Kind and Err to errors.Is and errors.As.
func (e *HubError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// kindForStatus maps an HTTP status to a sentinel error.
func kindForStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusServiceUnavailable:
		return ErrModelLoading
	default:
		return ErrHubResponse
	}
}

// kindForTransport maps a transport error to a sentinel error.
func kindForTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrNetwork
}

// statusPattern finds the HTTP status in hub file API error messages.
var statusPattern = regexp.MustCompile(`(?i)status(?:\s*code)?\D{0,3}([1-5]\d\d)\b`)

// fetchStatus returns the HTTP status named in err, or 0.
func fetchStatus(err error) int {
	msg := err.Error()
	if m := statusPattern.FindStringSubmatch(msg); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code
	}
	for _, code := range []int{
		http.StatusNotFound,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusServiceUnavailable,
	} {
		if strings.Contains(msg, http.StatusText(code)) {
			return code
		}
	}
	return 0
}

// fetchError wraps a repository listing or download failure in a HubError.
func fetchError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return &HubError{Op: op, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &HubError{Op: op, Kind: ErrTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &HubError{Op: op, Kind: ErrTimeout, Err: err}
		}
		return &HubError{Op: op, Kind: ErrNetwork, Err: err}
	}

	status := fetchStatus(err)
	if status == 0 {
		return &HubError{Op: op, Kind: ErrHubResponse, Err: err}
	}
	return &HubError{Op: op, StatusCode: status, Kind: kindForStatus(status), Err: err}
}

var errorKinds = []struct {
	err  error
	name string
}{
	{ErrModelNotFound, "ModelNotFound"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrInvalidModelID, "InvalidModelID"},
	{ErrModelLoading, "ModelLoading"},
	{ErrTimeout, "Timeout"},
	{ErrNetwork, "NetworkError"},
	{ErrInvalidResponse, "InvalidResponse"},
	{ErrMissingArtifact, "MissingArtifact"},
	{ErrRemoteCodeRequired, "RemoteCodeRequired"},
	{ErrUnsupportedArchitecture, "UnsupportedArchitecture"},
	{ErrEmptyInput, "EmptyInput"},
	{ErrHubResponse, "HubResponse"},
	{context.Canceled, "Canceled"},
	{context.DeadlineExceeded, "Timeout"},
}

// ErrorKind names the kind of err for console reports. Errors outside this
// package are named by their Go type.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return fmt.Sprintf("%T", err)
}
