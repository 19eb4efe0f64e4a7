package hub

import (
	"context"
	"fmt"
	"strings"

	"modelprobe/internal/core"
)

// maxRealisticLength separates real model_max_length values from the
// "very large integer" placeholder tokenizers use for unlimited input.
const maxRealisticLength = 1_000_000

// Tokenizer is a tokenizer resolved from a hub repository.
type Tokenizer struct {
	ModelID   string
	Class     string
	MaxLength int
	Artifacts []string
}

// Encode prepares text for a classifier with padding and truncation enabled.
func (t *Tokenizer) Encode(text string) (core.Encoding, error) {
	if strings.TrimSpace(text) == "" {
		return core.Encoding{}, ErrEmptyInput
	}
	return core.Encoding{
		Text:       text,
		Padding:    true,
		Truncation: true,
		MaxLength:  t.MaxLength,
	}, nil
}

// LoadTokenizer resolves the tokenizer of repository id. It fails when the
// repository is unreachable, ships no tokenizer files, or needs custom code
// that opts does not trust.
func (c *Client) LoadTokenizer(ctx context.Context, id string, opts core.LoadOptions) (*Tokenizer, error) {
	info, err := c.repoInfo(ctx, id, opts.Revision)
	if err != nil {
		return nil, err
	}

	artifacts := tokenizerArtifacts(info)
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("%s: no tokenizer files: %w", id, ErrMissingArtifact)
	}

	tok := &Tokenizer{ModelID: id, Artifacts: artifacts}

	if info.HasFile(core.TokenizerConfigFileName) {
		var cfg core.TokenizerConfig
		if err := c.FetchJSON(ctx, id, opts.Revision, core.TokenizerConfigFileName, &cfg); err != nil {
			return nil, fmt.Errorf("reading %s: %w", core.TokenizerConfigFileName, err)
		}
		if hasAutoMap(cfg.AutoMap) && !opts.TrustRemoteCode {
			return nil, fmt.Errorf("%s: tokenizer defines custom code: %w", id, ErrRemoteCodeRequired)
		}
		tok.Class = cfg.TokenizerClass
		if cfg.ModelMaxLength > 0 && cfg.ModelMaxLength < maxRealisticLength {
			tok.MaxLength = int(cfg.ModelMaxLength)
		}
	}

	c.logger.Debug("tokenizer for %s: class=%q max_length=%d files=%v", id, tok.Class, tok.MaxLength, tok.Artifacts)
	return tok, nil
}

// repoInfo validates id and lists the repository files at revision.
func (c *Client) repoInfo(ctx context.Context, id, revision string) (*core.HubModelInfo, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%q: %w", id, ErrInvalidModelID)
	}
	return c.ModelInfo(ctx, id, revision)
}

// tokenizerArtifacts lists the tokenizer files present in the repository.
func tokenizerArtifacts(info *core.HubModelInfo) []string {
	var found []string
	for _, name := range core.TokenizerArtifacts {
		if !info.HasFile(name) {
			continue
		}
		if name == "vocab.json" && !info.HasFile("merges.txt") {
			continue
		}
		found = append(found, name)
	}
	return found
}

// hasAutoMap reports whether an auto_map value declares any custom classes.
func hasAutoMap(v any) bool {
	switch m := v.(type) {
	case nil:
		return false
	case map[string]any:
		return len(m) > 0
	case []any:
		return len(m) > 0
	case string:
		return m != ""
	default:
		return true
	}
}
