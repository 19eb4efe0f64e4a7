package core

import (
	"time"
)

// Encoding is the tokenizer output handed to a classifier. Tokenization
// itself happens on the inference endpoint, so the encoding carries the
// text plus the padding/truncation settings the tokenizer resolved.
type Encoding struct {
	Text       string `json:"text"`
	Padding    bool   `json:"padding"`
	Truncation bool   `json:"truncation"`
	MaxLength  int    `json:"max_length,omitempty"`
}

// Inference holds the tensors produced for one sample text.
type Inference struct {
	Text           string    `json:"text"`
	Labels         []string  `json:"labels"`
	Logits         []float64 `json:"logits"`
	Probabilities  []float64 `json:"probabilities"`
	PredictedClass int       `json:"predicted_class"`
}

// PredictedLabel returns the label of the predicted class, or "" if unknown.
func (i Inference) PredictedLabel() string {
	if i.PredictedClass < 0 || i.PredictedClass >= len(i.Labels) {
		return ""
	}
	return i.Labels[i.PredictedClass]
}

// ModelCheck describes one model to probe.
type ModelCheck struct {
	Key             string   `json:"key" yaml:"key"`
	ID              string   `json:"id" yaml:"id"`
	Title           string   `json:"title" yaml:"title"`
	Name            string   `json:"name" yaml:"name"`
	TrustRemoteCode bool     `json:"trust_remote_code" yaml:"trust_remote_code"`
	Samples         []string `json:"samples" yaml:"samples"`
}

// ModelsFile is the on-disk list of model checks.
type ModelsFile struct {
	Models []ModelCheck `json:"models" yaml:"models"`
}

// ModelReport is the outcome of checking one model.
type ModelReport struct {
	Key        string      `json:"key"`
	ID         string      `json:"id"`
	Success    bool        `json:"success"`
	Stage      string      `json:"stage,omitempty"`
	Error      string      `json:"error,omitempty"`
	ErrorType  string      `json:"error_type,omitempty"`
	Inferences []Inference `json:"inferences,omitempty"`
	DurationMs int64       `json:"duration_ms"`
}

// Failure stages recorded in ModelReport.Stage.
const (
	FailedAtTokenizer = "tokenizer"
	FailedAtModel     = "model"
	FailedAtInference = "inference"
)

// RunReport is the outcome of one probe run.
type RunReport struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	TokenPresent bool          `json:"token_present"`
	GoVersion    string        `json:"go_version"`
	HubURL       string        `json:"hub_url"`
	Models       []ModelReport `json:"models"`
	Stats        *RequestStats `json:"stats,omitempty"`
}

// AllSucceeded reports whether every model check succeeded. An empty run
// counts as success.
func (r *RunReport) AllSucceeded() bool {
	for _, m := range r.Models {
		if !m.Success {
			return false
		}
	}
	return true
}

// SuccessCount returns the number of models that passed.
func (r *RunReport) SuccessCount() int {
	n := 0
	for _, m := range r.Models {
		if m.Success {
			n++
		}
	}
	return n
}

// RequestStats holds aggregated hub request statistics for a run.
type RequestStats struct {
	TotalRequests      int64           `json:"total_requests"`
	SuccessfulRequests int64           `json:"successful_requests"`
	FailedRequests     int64           `json:"failed_requests"`
	TotalResponseTime  int64           `json:"total_response_time"`
	LastRequestTime    time.Time       `json:"last_request_time"`
	RequestHistory     []RequestRecord `json:"request_history"`
}

// RequestRecord represents a single hub request's metadata for history tracking.
type RequestRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
	ResponseTime int64     `json:"response_time"`
	Model        string    `json:"model"`
	Stage        string    `json:"stage"`
}

// LatencyStats holds computed request statistics for one model.
type LatencyStats struct {
	Requests        int64   `json:"requests"`
	SuccessRate     float64 `json:"successRate"`
	AvgResponseTime int64   `json:"avgResponseTime"`
}
