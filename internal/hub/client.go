// Package hub reads Hugging Face hub repositories, calls the hosted
// inference endpoint, and builds tokenizers and classifiers from them.
package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"modelprobe/internal/core"
	"modelprobe/internal/util"

	"github.com/bytedance/sonic"
	"golang.org/x/time/rate"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	InferenceURL  string
	Revision      string
	Token         string
	CacheDir      string
	Files         core.RepoFiles
	HTTPClient    *http.Client
	Logger        core.Logger
	Metrics       core.MetricsCollector
	InferenceRate float64
}

// Client reads repositories through core.RepoFiles and runs inference
// over HTTP.
type Client struct {
	inferenceURL string
	revision     string
	token        string
	files        core.RepoFiles
	httpClient   *http.Client
	logger       core.Logger
	metrics      core.MetricsCollector
	limiter      *rate.Limiter
	allowedHosts []string
}

// NewClient creates a Client. Without Files, repositories are read through
// hf-hub with Token and CacheDir. InferenceRate <= 0 disables pacing of
// inference calls.
func NewClient(cfg ClientConfig) (*Client, error) {
	inferenceURL := strings.TrimRight(cfg.InferenceURL, "/")
	if inferenceURL == "" {
		inferenceURL = core.DefaultInferenceURL
	}
	revision := cfg.Revision
	if revision == "" {
		revision = core.DefaultRevision
	}
	files := cfg.Files
	if files == nil {
		hf, err := NewHFRepoFiles(HFConfig{Token: cfg.Token, CacheDir: cfg.CacheDir})
		if err != nil {
			return nil, err
		}
		files = hf
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: core.DefaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &core.NopMetrics{}
	}

	limit := rate.Inf
	if cfg.InferenceRate > 0 {
		limit = rate.Limit(cfg.InferenceRate)
	}

	return &Client{
		inferenceURL: inferenceURL,
		revision:     revision,
		token:        cfg.Token,
		files:        files,
		httpClient:   httpClient,
		logger:       logger,
		metrics:      metrics,
		limiter:      rate.NewLimiter(limit, 1),
		allowedHosts: []string{util.HostOf(inferenceURL)},
	}, nil
}

// HubURL returns the hub base URL.
func (c *Client) HubURL() string { return core.DefaultHubURL }

func (c *Client) resolveRevision(revision string) string {
	if revision == "" {
		return c.revision
	}
	return revision
}

// ModelInfo lists the files of repository id at revision. An empty revision
// uses the client default.
func (c *Client) ModelInfo(ctx context.Context, id, revision string) (*core.HubModelInfo, error) {
	revision = c.resolveRevision(revision)
	op := fmt.Sprintf("info %s@%s", id, revision)

	start := time.Now()
	info, err := c.files.Info(ctx, id, revision)
	if err != nil {
		c.metrics.RecordHubRequest(false, time.Since(start), id, core.StageModelInfo)
		c.logger.Debug("%s failed: %v", op, err)
		return nil, fetchError(op, err)
	}
	c.metrics.RecordHubRequest(true, time.Since(start), id, core.StageModelInfo)
	c.logger.Debug("%s: %d files in %s", op, len(info.Siblings), time.Since(start).Round(time.Millisecond))

	if info.ID == "" {
		info.ID = id
	}
	return info, nil
}

// FetchJSON downloads filename from the repository at revision and decodes it into out.
func (c *Client) FetchJSON(ctx context.Context, id, revision, filename string, out any) error {
	revision = c.resolveRevision(revision)
	op := fmt.Sprintf("get %s@%s/%s", id, revision, filename)

	start := time.Now()
	path, err := c.files.Get(ctx, id, revision, filename)
	if err != nil {
		c.metrics.RecordHubRequest(false, time.Since(start), id, core.StageFile)
		c.logger.Debug("%s failed: %v", op, err)
		return fetchError(op, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.metrics.RecordHubRequest(false, time.Since(start), id, core.StageFile)
		return &HubError{Op: op, URL: path, Kind: ErrInvalidResponse, Err: err}
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		c.metrics.RecordHubRequest(false, time.Since(start), id, core.StageFile)
		return &HubError{Op: op, URL: path, Kind: ErrInvalidResponse, Err: err}
	}

	c.metrics.RecordHubRequest(true, time.Since(start), id, core.StageFile)
	return nil
}

// Infer runs the hosted text-classification pipeline for one input.
func (c *Client) Infer(ctx context.Context, id string, payload core.InferenceRequest) (core.LabelScores, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		// Wait fails early when the deadline would pass before a token frees up.
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, &HubError{Op: "POST " + id, Err: ctx.Err()}
		}
		return nil, &HubError{Op: "POST " + id, Kind: ErrTimeout, Err: err}
	}

	rawURL := c.inferenceURL + "/" + escapeRepoID(id)
	req, err := util.CreateHubRequest(ctx, http.MethodPost, rawURL, payload, c.token)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var scores core.LabelScores
	if err := c.doJSON(req, id, core.StageInference, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// doJSON sends req, maps failures onto HubError and decodes a 2xx body into out.
func (c *Client) doJSON(req *http.Request, model, stage string, out any) error {
	op := req.Method + " " + req.URL.Path

	if err := util.ValidateRequestTarget(req, c.allowedHosts, stage); err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // Request target is restricted by util.ValidateRequestTarget.
	if err != nil {
		c.metrics.RecordHubRequest(false, time.Since(start), model, stage)
		return &HubError{Op: op, URL: req.URL.String(), Kind: kindForTransport(err), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordHubRequest(false, time.Since(start), model, stage)
		body := hubErrorMessage(util.ReadErrorBody(resp.Body))
		c.logger.Debug("%s returned %d: %s", op, resp.StatusCode, body)
		return &HubError{
			Op:         op,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       body,
			Kind:       kindForStatus(resp.StatusCode),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, core.MaxResponseBodySize))
	if err != nil {
		c.metrics.RecordHubRequest(false, time.Since(start), model, stage)
		return &HubError{Op: op, URL: req.URL.String(), Kind: kindForTransport(err), Err: err}
	}

	if err := sonic.Unmarshal(data, out); err != nil {
		c.metrics.RecordHubRequest(false, time.Since(start), model, stage)
		return &HubError{Op: op, URL: req.URL.String(), StatusCode: resp.StatusCode, Kind: ErrInvalidResponse, Err: err}
	}

	c.metrics.RecordHubRequest(true, time.Since(start), model, stage)
	c.logger.Debug("%s ok in %s", op, time.Since(start).Round(time.Millisecond))
	return nil
}

// hubErrorMessage extracts the "error" field of a JSON error body, keeping
// the raw body otherwise.
func hubErrorMessage(body string) string {
	if body == "" {
		return ""
	}
	var payload map[string]any
	if err := sonic.UnmarshalString(body, &payload); err != nil {
		return body
	}
	msg, ok := payload[core.HubErrorField].(string)
	if !ok || msg == "" {
		return body
	}
	if eta, ok := payload[core.HubEstimatedTimeField].(float64); ok {
		return fmt.Sprintf("%s (estimated time %.0fs)", msg, eta)
	}
	return msg
}

// escapeRepoID escapes each path segment of a repository id.
func escapeRepoID(id string) string {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
