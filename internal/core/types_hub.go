package core

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// HubSibling is one file entry of a hub repository.
type HubSibling struct {
	RFilename string `json:"rfilename"`
}

// HubModelInfo is the repository listing returned by the hub at one revision.
type HubModelInfo struct {
	ID       string       `json:"id"`
	Sha      string       `json:"sha"`
	Siblings []HubSibling `json:"siblings"`
}

// HasFile reports whether the repository contains the named file.
func (m *HubModelInfo) HasFile(name string) bool {
	for _, s := range m.Siblings {
		if s.RFilename == name {
			return true
		}
	}
	return false
}

// ModelConfig is the subset of config.json needed to build a classifier.
type ModelConfig struct {
	Architectures []string          `json:"architectures"`
	ModelType     string            `json:"model_type"`
	ID2Label      map[string]string `json:"id2label"`
	NumLabels     int               `json:"num_labels"`
	AutoMap       map[string]any    `json:"auto_map"`
}

// TokenizerConfig is the subset of tokenizer_config.json the probe uses.
type TokenizerConfig struct {
	TokenizerClass string  `json:"tokenizer_class"`
	ModelMaxLength float64 `json:"model_max_length"`
	AutoMap        any     `json:"auto_map"`
}

// InferenceRequest is the hosted inference payload.
type InferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters InferenceParameters `json:"parameters"`
	Options    InferenceOptions    `json:"options"`
}

// InferenceParameters are the text-classification pipeline arguments.
// TopK is always sent; null asks for every label.
type InferenceParameters struct {
	FunctionToApply string `json:"function_to_apply"`
	TopK            *int   `json:"top_k"`
	Truncation      bool   `json:"truncation"`
	Padding         bool   `json:"padding"`
	MaxLength       int    `json:"max_length,omitempty"`
}

// InferenceOptions control model warm-up and response caching.
type InferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

// LabelScore is a single label with its raw score.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// LabelScores supports both the flat and the per-input nested response form.
type LabelScores []LabelScore

// UnmarshalJSON accepts [{label,score}] and [[{label,score}]].
func (ls *LabelScores) UnmarshalJSON(data []byte) error {
	var flat []LabelScore
	if err := sonic.Unmarshal(data, &flat); err == nil {
		*ls = flat
		return nil
	}

	var nested [][]LabelScore
	if err := sonic.Unmarshal(data, &nested); err == nil {
		if len(nested) == 0 {
			*ls = LabelScores{}
			return nil
		}
		*ls = nested[0]
		return nil
	}

	return fmt.Errorf("invalid classification output: %s", strings.TrimSpace(truncate(string(data), MaxErrorBodyLength)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
