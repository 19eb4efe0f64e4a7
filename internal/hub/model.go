package hub

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"modelprobe/internal/core"
)

const autoModelForSequenceClassification = "AutoModelFor" + core.SequenceClassificationSuffix

// Model is a sequence-classification model served by the inference endpoint.
type Model struct {
	client       *Client
	ID           string
	ModelType    string
	Architecture string
	labels       []string
}

// Labels returns class labels in class-index order.
func (m *Model) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// Forward returns the raw logits for input, ordered like Labels.
func (m *Model) Forward(ctx context.Context, input core.Encoding) ([]float64, error) {
	payload := core.InferenceRequest{
		Inputs: input.Text,
		Parameters: core.InferenceParameters{
			FunctionToApply: core.FunctionToApplyNone,
			Truncation:      input.Truncation,
			Padding:         input.Padding,
			MaxLength:       input.MaxLength,
		},
		Options: core.InferenceOptions{
			WaitForModel: true,
			UseCache:     false,
		},
	}

	scores, err := m.client.Infer(ctx, m.ID, payload)
	if err != nil {
		return nil, err
	}
	return alignScores(m.labels, scores)
}

// LoadModel resolves a sequence-classification model from repository id.
func (c *Client) LoadModel(ctx context.Context, id string, opts core.LoadOptions) (*Model, error) {
	info, err := c.repoInfo(ctx, id, opts.Revision)
	if err != nil {
		return nil, err
	}

	if !info.HasFile(core.ConfigFileName) {
		return nil, fmt.Errorf("%s: no %s: %w", id, core.ConfigFileName, ErrMissingArtifact)
	}

	var cfg core.ModelConfig
	if err := c.FetchJSON(ctx, id, opts.Revision, core.ConfigFileName, &cfg); err != nil {
		return nil, fmt.Errorf("reading %s: %w", core.ConfigFileName, err)
	}

	if len(cfg.AutoMap) > 0 && !opts.TrustRemoteCode {
		return nil, fmt.Errorf("%s: model defines custom code: %w", id, ErrRemoteCodeRequired)
	}

	arch, err := classificationArchitecture(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	if arch == "" {
		c.logger.Warn("%s declares no architectures, classification head will be assumed", id)
	}

	if !hasWeights(info) {
		return nil, fmt.Errorf("%s: no model weights: %w", id, ErrMissingArtifact)
	}

	labels, err := labelsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}

	c.logger.Debug("model %s: type=%q architecture=%q labels=%v", id, cfg.ModelType, arch, labels)
	return &Model{
		client:       c,
		ID:           id,
		ModelType:    cfg.ModelType,
		Architecture: arch,
		labels:       labels,
	}, nil
}

// classificationArchitecture picks the classification head from config.json.
// Custom code registered under auto_map counts as a head.
func classificationArchitecture(cfg core.ModelConfig) (string, error) {
	for _, a := range cfg.Architectures {
		if strings.HasSuffix(a, core.SequenceClassificationSuffix) {
			return a, nil
		}
	}
	if ref, ok := cfg.AutoMap[autoModelForSequenceClassification].(string); ok && ref != "" {
		return ref, nil
	}
	if len(cfg.Architectures) == 0 {
		return "", nil
	}
	return "", fmt.Errorf("architectures %v: %w", cfg.Architectures, ErrUnsupportedArchitecture)
}

func hasWeights(info *core.HubModelInfo) bool {
	for _, name := range core.WeightArtifacts {
		if info.HasFile(name) {
			return true
		}
	}
	for _, s := range info.Siblings {
		if strings.HasSuffix(s.RFilename, ".safetensors") && !strings.Contains(s.RFilename, "/") {
			return true
		}
	}
	return false
}

// labelsFromConfig returns class labels ordered by class index. Without
// id2label the labels are LABEL_0..LABEL_{n-1}, n defaulting to 2.
func labelsFromConfig(cfg core.ModelConfig) ([]string, error) {
	if len(cfg.ID2Label) == 0 {
		n := cfg.NumLabels
		if n <= 0 {
			n = 2
		}
		labels := make([]string, n)
		for i := range labels {
			labels[i] = fmt.Sprintf("LABEL_%d", i)
		}
		return labels, nil
	}

	ids := make([]int, 0, len(cfg.ID2Label))
	byID := make(map[int]string, len(cfg.ID2Label))
	for key, label := range cfg.ID2Label {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("id2label key %q: %w", key, ErrInvalidResponse)
		}
		ids = append(ids, id)
		byID[id] = label
	}
	sort.Ints(ids)

	labels := make([]string, len(ids))
	for i, id := range ids {
		if id != i {
			return nil, fmt.Errorf("id2label is not contiguous at %d: %w", i, ErrInvalidResponse)
		}
		labels[i] = byID[id]
	}
	return labels, nil
}

// alignScores places each returned score at its label's class index.
func alignScores(labels []string, scores core.LabelScores) ([]float64, error) {
	logits := make([]float64, len(labels))
	seen := make([]bool, len(labels))

	for _, s := range scores {
		idx := indexOfLabel(labels, s.Label)
		if idx < 0 {
			return nil, fmt.Errorf("unknown label %q: %w", s.Label, ErrInvalidResponse)
		}
		logits[idx] = s.Score
		seen[idx] = true
	}

	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("no score for label %q: %w", labels[i], ErrInvalidResponse)
		}
	}
	return logits, nil
}

// indexOfLabel matches labels case-insensitively; "LABEL_n" also matches index n.
func indexOfLabel(labels []string, label string) int {
	for i, l := range labels {
		if strings.EqualFold(l, label) {
			return i
		}
	}
	if rest, ok := strings.CutPrefix(label, "LABEL_"); ok {
		if i, err := strconv.Atoi(rest); err == nil && i >= 0 && i < len(labels) {
			return i
		}
	}
	return -1
}
