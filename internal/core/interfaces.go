package core

import (
	"context"
	"time"
)

// Logger interface
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Fatal(format string, args ...any)
}

// RunStore persists probe run history.
type RunStore interface {
	SaveRun(ctx context.Context, report *RunReport) error
	LoadRuns(ctx context.Context, limit int) ([]RunReport, error)
	Close() error
}

// MetricsCollector records hub request outcomes.
type MetricsCollector interface {
	RecordHubRequest(success bool, duration time.Duration, model, stage string)
}

// RepoFiles lists and downloads files of hub repositories. Get returns the
// path of a local copy of filename.
type RepoFiles interface {
	Info(ctx context.Context, id, revision string) (*HubModelInfo, error)
	Get(ctx context.Context, id, revision, filename string) (string, error)
}

// Tokenizer turns a sample text into classifier input.
type Tokenizer interface {
	Encode(text string) (Encoding, error)
}

// Classifier runs a forward pass and returns one logits row with its labels.
type Classifier interface {
	Labels() []string
	Forward(ctx context.Context, input Encoding) ([]float64, error)
}

// LoadOptions mirror the knobs of a pretrained-model loader.
type LoadOptions struct {
	TrustRemoteCode bool
	Revision        string
}

// ModelLoader loads tokenizers and classification models by hub id.
type ModelLoader interface {
	LoadTokenizer(ctx context.Context, id string, opts LoadOptions) (Tokenizer, error)
	LoadClassifier(ctx context.Context, id string, opts LoadOptions) (Classifier, error)
}

// NopLogger empty logger implementation
type NopLogger struct{}

func (*NopLogger) Debug(format string, args ...any) {}
func (*NopLogger) Info(format string, args ...any)  {}
func (*NopLogger) Warn(format string, args ...any)  {}
func (*NopLogger) Error(format string, args ...any) {}
func (*NopLogger) Fatal(format string, args ...any) {}

// NopMetrics empty metrics collector implementation
type NopMetrics struct{}

func (*NopMetrics) RecordHubRequest(success bool, duration time.Duration, model, stage string) {}
