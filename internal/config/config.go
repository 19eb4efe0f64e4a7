// Package config loads probe settings from the environment and model list files.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"modelprobe/internal/core"
	"modelprobe/internal/util"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

// Config probe configuration
type Config struct {
	Token              string
	TokenSource        string
	InferenceURL       string
	Revision           string
	CacheDir           string
	Timeout            time.Duration
	InferenceRate      float64
	Models             []string
	ModelsFile         string
	RedisURL           string
	HistoryFile        string
	HTTPClientSettings HTTPClientSettings
}

// HTTPClientSettings HTTP client configuration
type HTTPClientSettings struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	RequestTimeout      time.Duration
}

// DefaultHTTPClientSettings default HTTP client settings
func DefaultHTTPClientSettings() HTTPClientSettings {
	return HTTPClientSettings{
		MaxIdleConns:        core.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: core.HTTPMaxIdleConnsPerHost,
		MaxConnsPerHost:     core.HTTPMaxConnsPerHost,
		IdleConnTimeout:     core.HTTPIdleConnTimeout,
		TLSHandshakeTimeout: core.HTTPTLSHandshakeTimeout,
		RequestTimeout:      core.DefaultTimeout,
	}
}

// NewHTTPClient builds an HTTP client with a tuned transport.
func NewHTTPClient(settings HTTPClientSettings) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          settings.MaxIdleConns,
		MaxIdleConnsPerHost:   settings.MaxIdleConnsPerHost,
		MaxConnsPerHost:       settings.MaxConnsPerHost,
		IdleConnTimeout:       settings.IdleConnTimeout,
		TLSHandshakeTimeout:   settings.TLSHandshakeTimeout,
		ExpectContinueTimeout: core.HTTPExpectContinueTimeout,
		DisableKeepAlives:     false,
		ForceAttemptHTTP2:     true,
		ResponseHeaderTimeout: core.HTTPResponseHeaderTimeout,
		DisableCompression:    false,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   settings.RequestTimeout,
	}
}

// LoadFromEnv loads probe config from environment variables
func LoadFromEnv(logger core.Logger) (Config, error) {
	tokenSource, token := util.FirstEnv(core.TokenEnvVars...)

	timeout := core.DefaultTimeout
	if raw := os.Getenv(core.EnvTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", core.EnvTimeout, raw, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q: must be positive", core.EnvTimeout, raw)
		}
		timeout = d
	}

	inferenceRate := core.DefaultInferenceRate
	if raw := os.Getenv(core.EnvRate); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", core.EnvRate, raw, err)
		}
		inferenceRate = r
	}

	settings := DefaultHTTPClientSettings()
	settings.RequestTimeout = timeout

	config := Config{
		Token:              token,
		TokenSource:        tokenSource,
		InferenceURL:       util.GetEnvWithDefault(core.EnvInferenceURL, core.DefaultInferenceURL),
		Revision:           util.GetEnvWithDefault(core.EnvRevision, core.DefaultRevision),
		CacheDir:           os.Getenv(core.EnvCacheDir),
		Timeout:            timeout,
		InferenceRate:      inferenceRate,
		Models:             util.ParseEnvList(os.Getenv(core.EnvModels)),
		ModelsFile:         os.Getenv(core.EnvModelsFile),
		RedisURL:           os.Getenv(core.EnvRedisURL),
		HistoryFile:        util.GetEnvWithDefault(core.EnvHistoryFile, core.DefaultHistoryFile),
		HTTPClientSettings: settings,
	}

	if tokenSource != "" {
		logger.Debug("Using token from %s", tokenSource)
	}
	if inferenceRate <= 0 {
		logger.Debug("Inference pacing disabled")
	}

	return config, nil
}

// SetTimeout overrides the request timeout.
func (c *Config) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.Timeout = d
	c.HTTPClientSettings.RequestTimeout = d
}

// DefaultSamples are the texts sent to models that do not list their own.
func DefaultSamples() []string {
	return []string{"bodoh", "babi", "hello world"}
}

// DefaultChecks returns the built-in model checks.
func DefaultChecks() []core.ModelCheck {
	return []core.ModelCheck{
		{
			Key:             "malaysian_sfw",
			ID:              "malaysia-ai/malaysian-sfw-classifier",
			Title:           "MALAYSIAN SFW CLASSIFIER",
			Name:            "Malaysian SFW Classifier",
			TrustRemoteCode: true,
			Samples:         []string{"bodoh", "babi", "hello world", "saya suka makan"},
		},
		{
			Key:     "xlm_roberta",
			ID:      "unitary/multilingual-toxic-xlm-roberta",
			Title:   "XLM-ROBERTA MULTILINGUAL TOXIC CLASSIFIER",
			Name:    "XLM-RoBERTa",
			Samples: []string{"bodoh", "babi", "hello world", "you are stupid"},
		},
	}
}

// LoadModelChecks reads model checks from a YAML or JSON file. The format
// follows the extension; files without a known extension are tried as YAML.
func LoadModelChecks(path string) ([]core.ModelCheck, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path from flag or env, not remote input
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file core.ModelsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := sonic.Unmarshal(data, &file); err != nil {
			var checks []core.ModelCheck
			if err := sonic.Unmarshal(data, &checks); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			file.Models = checks
		}
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	checks := normalizeChecks(file.Models)
	if err := ValidateChecks(checks); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return checks, nil
}

// ParseModelFlags builds checks from "key=id" values. A bare id is keyed by
// its last path segment.
func ParseModelFlags(values []string) ([]core.ModelCheck, error) {
	checks := make([]core.ModelCheck, 0, len(values))
	for _, v := range values {
		key, id, err := util.ParseKeyValue(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --model %q: %w", v, err)
		}
		checks = append(checks, core.ModelCheck{Key: key, ID: id})
	}

	checks = normalizeChecks(checks)
	if err := ValidateChecks(checks); err != nil {
		return nil, err
	}
	return checks, nil
}

// normalizeChecks fills in titles, names and samples left empty.
func normalizeChecks(checks []core.ModelCheck) []core.ModelCheck {
	for i := range checks {
		checks[i].Key = strings.TrimSpace(checks[i].Key)
		checks[i].ID = strings.TrimSpace(checks[i].ID)
		if checks[i].Title == "" {
			checks[i].Title = strings.ToUpper(checks[i].ID)
		}
		if checks[i].Name == "" {
			checks[i].Name = checks[i].ID
		}
		if len(checks[i].Samples) == 0 {
			checks[i].Samples = DefaultSamples()
		}
	}
	return checks
}

// ValidateChecks checks that every entry has a key and id and keys are unique.
func ValidateChecks(checks []core.ModelCheck) error {
	if len(checks) == 0 {
		return errors.New("no models configured")
	}

	seen := make(map[string]bool, len(checks))
	for i, c := range checks {
		if c.Key == "" {
			return fmt.Errorf("model #%d: missing key", i+1)
		}
		if c.ID == "" {
			return fmt.Errorf("model %q: missing id", c.Key)
		}
		if seen[c.Key] {
			return fmt.Errorf("model %q: duplicate key", c.Key)
		}
		seen[c.Key] = true
	}
	return nil
}
