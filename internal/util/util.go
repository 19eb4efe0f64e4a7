package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"modelprobe/internal/core"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// MarshalJSON wraps Sonic for performance
func MarshalJSON(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// NewRunID generates a unique probe run ID
func NewRunID() string {
	return uuid.NewString()
}

// CreateHubRequest creates a hub HTTP request with standard headers
func CreateHubRequest(ctx context.Context, method, rawURL string, payload any, token string) (*http.Request, error) {
	var body io.Reader

	if payload != nil {
		payloadBytes, err := MarshalJSON(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", core.UserAgent)
	req.Header.Set(core.HeaderAccept, core.ContentTypeJSON)
	if payload != nil {
		req.Header.Set(core.HeaderContentType, core.ContentTypeJSON)
	}
	if token != "" {
		req.Header.Set(core.HeaderAuthorization, core.AuthBearerPrefix+token)
	}

	return req, nil
}

// ValidateRequestTarget rejects requests whose host is not one of allowedHosts,
// so the token is only ever sent to the configured hub endpoints.
func ValidateRequestTarget(req *http.Request, allowedHosts []string, targetType string) error {
	if req == nil || req.URL == nil {
		return fmt.Errorf("invalid request: missing URL")
	}
	if targetType == "" {
		targetType = "outbound"
	}

	scheme := strings.ToLower(req.URL.Scheme)
	if scheme != "https" && scheme != "http" {
		return fmt.Errorf("blocked %s request target: unsupported scheme %q", targetType, req.URL.Scheme)
	}

	for _, host := range allowedHosts {
		if strings.EqualFold(req.URL.Host, host) {
			return nil
		}
	}
	return fmt.Errorf("blocked %s request target: %s", targetType, req.URL.Host)
}

// HostOf returns the host[:port] of rawURL, or "" if it cannot be parsed.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// ReadErrorBody reads at most MaxErrorBodyLength bytes of an error response.
func ReadErrorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, core.MaxErrorBodyLength))
	return strings.TrimSpace(string(body))
}

// MaskToken shows only the first few characters of a token.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= core.TokenDisplayPrefix {
		return token + "..."
	}
	return token[:core.TokenDisplayPrefix] + "..."
}

// ParseEnvList parses comma-separated env var to trimmed slice
func ParseEnvList(envVar string) []string {
	if envVar == "" {
		return nil
	}
	parts := strings.Split(envVar, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// GetEnvWithDefault gets env var with default value
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FirstEnv returns the first non-empty env var among keys and its name.
func FirstEnv(keys ...string) (string, string) {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return key, value
		}
	}
	return "", ""
}

// ParseKeyValue splits "key=value". A bare value uses the part after the last
// "/" as key, so "org/model" becomes ("model", "org/model").
func ParseKeyValue(s string) (string, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", fmt.Errorf("empty value")
	}

	if key, value, ok := strings.Cut(s, "="); ok {
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			return "", "", fmt.Errorf("invalid key=value pair %q", s)
		}
		return key, value, nil
	}

	key := s
	if idx := strings.LastIndex(s, "/"); idx != -1 {
		key = s[idx+1:]
	}
	if key == "" {
		return "", "", fmt.Errorf("invalid model id %q", s)
	}
	return key, s, nil
}
