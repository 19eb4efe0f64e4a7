// Package probe checks that hub models can be loaded and run, printing a
// console report as it goes.
package probe

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"modelprobe/internal/core"
	"modelprobe/internal/hub"
	"modelprobe/internal/tensor"
	"modelprobe/internal/util"
)

// LatencyReporter reports hub latency per model id.
type LatencyReporter interface {
	ModelLatency(model string) core.LatencyStats
}

// Config configures a Prober.
type Config struct {
	Loader   core.ModelLoader
	Out      io.Writer
	Logger   core.Logger
	Latency  LatencyReporter
	Token    string
	HubURL   string
	Revision string
}

// Prober runs model checks.
type Prober struct {
	loader   core.ModelLoader
	out      io.Writer
	logger   core.Logger
	latency  LatencyReporter
	token    string
	hubURL   string
	revision string
}

// New creates a Prober. Output defaults to stdout.
func New(cfg Config) *Prober {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}
	return &Prober{
		loader:   cfg.Loader,
		out:      out,
		logger:   logger,
		latency:  cfg.Latency,
		token:    cfg.Token,
		hubURL:   cfg.HubURL,
		revision: cfg.Revision,
	}
}

// CheckModel loads the tokenizer and classifier for check and runs every
// sample through them. It returns false on the first error.
func (p *Prober) CheckModel(ctx context.Context, check core.ModelCheck) (bool, core.ModelReport) {
	start := time.Now()
	report := core.ModelReport{Key: check.Key, ID: check.ID}

	p.banner("TESTING " + check.Title)

	stage, err := p.runCheck(ctx, check, &report)
	report.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		name := check.Name
		if name == "" {
			name = check.ID
		}
		kind := hub.ErrorKind(err)

		p.printf("❌ Error accessing %s: %v\n", name, err)
		p.printf("Error type: %s\n", kind)
		p.logger.Debug("check %s failed at %s: %v", check.Key, stage, err)

		report.Stage = stage
		report.Error = err.Error()
		report.ErrorType = kind
		return false, report
	}

	report.Success = true
	return true, report
}

// runCheck performs the check and returns the stage it stopped at.
func (p *Prober) runCheck(ctx context.Context, check core.ModelCheck, report *core.ModelReport) (string, error) {
	opts := core.LoadOptions{TrustRemoteCode: check.TrustRemoteCode, Revision: p.revision}

	p.printf("Loading tokenizer...\n")
	tok, err := p.loader.LoadTokenizer(ctx, check.ID, opts)
	if err != nil {
		return core.FailedAtTokenizer, err
	}
	p.printf("✅ Tokenizer loaded successfully!\n")

	p.printf("Loading model...\n")
	clf, err := p.loader.LoadClassifier(ctx, check.ID, opts)
	if err != nil {
		return core.FailedAtModel, err
	}
	p.printf("✅ Model loaded successfully!\n")

	for _, text := range check.Samples {
		p.printf("\nTesting text: '%s'\n", text)

		inf, err := classify(ctx, tok, clf, text)
		if err != nil {
			return core.FailedAtInference, err
		}

		p.printf("  Logits: %s\n", tensor.Format(inf.Logits))
		p.printf("  Probabilities: %s\n", tensor.Format(inf.Probabilities))
		p.printf("  Predicted class: %d\n", inf.PredictedClass)
		if label := inf.PredictedLabel(); label != "" {
			p.logger.Debug("%s %q -> %s", check.Key, text, label)
		}

		report.Inferences = append(report.Inferences, inf)
	}
	return "", nil
}

// classify runs one text through tokenizer and classifier.
func classify(ctx context.Context, tok core.Tokenizer, clf core.Classifier, text string) (core.Inference, error) {
	enc, err := tok.Encode(text)
	if err != nil {
		return core.Inference{}, err
	}

	logits, err := clf.Forward(ctx, enc)
	if err != nil {
		return core.Inference{}, err
	}

	probs := tensor.Softmax(logits)
	return core.Inference{
		Text:           text,
		Labels:         clf.Labels(),
		Logits:         logits,
		Probabilities:  probs,
		PredictedClass: tensor.Argmax(probs),
	}, nil
}

// Run checks every model in order and prints a summary. A failed check does
// not stop later ones.
func (p *Prober) Run(ctx context.Context, checks []core.ModelCheck) core.RunReport {
	report := core.RunReport{
		RunID:        util.NewRunID(),
		StartedAt:    time.Now(),
		TokenPresent: p.token != "",
		GoVersion:    runtime.Version(),
		HubURL:       p.hubURL,
		Models:       make([]core.ModelReport, 0, len(checks)),
	}

	p.printf("ML MODEL ACCESS TESTING\n")
	p.printf("%s\n", separator())
	if p.token != "" {
		p.printf("✅ HF Token found: %s\n", util.MaskToken(p.token))
	} else {
		p.printf("⚠️  No HF token found in environment\n")
	}
	p.printf("Go version: %s\n", report.GoVersion)
	p.printf("Hub endpoint: %s\n", p.hubURL)

	for i, check := range checks {
		if i > 0 {
			p.printf("\n")
		}
		_, modelReport := p.CheckModel(ctx, check)
		report.Models = append(report.Models, modelReport)
	}

	report.FinishedAt = time.Now()
	p.summary(&report)
	return report
}

func (p *Prober) summary(report *core.RunReport) {
	p.printf("\n")
	p.banner("SUMMARY")
	for _, m := range report.Models {
		status := core.StatusFailed
		if m.Success {
			status = core.StatusAccessible
		}
		p.printf("%s: %s\n", m.Key, status)

		if p.latency == nil {
			continue
		}
		if stats := p.latency.ModelLatency(m.ID); stats.Requests > 0 {
			p.printf("  avg hub latency: %dms over %d requests\n", stats.AvgResponseTime, stats.Requests)
		}
	}
	p.logger.Info("%d/%d models accessible in %s", report.SuccessCount(), len(report.Models),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
}

func (p *Prober) banner(title string) {
	p.printf("%s\n%s\n%s\n", separator(), title, separator())
}

func (p *Prober) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(p.out, format, args...); err != nil {
		p.logger.Warn("Failed to write report: %v", err)
	}
}

func separator() string {
	return strings.Repeat("=", core.BannerWidth)
}
