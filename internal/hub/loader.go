package hub

import (
	"context"

	"modelprobe/internal/core"
)

// Loader adapts a Client to core.ModelLoader.
type Loader struct {
	Client *Client
}

// NewLoader creates a Loader backed by client.
func NewLoader(client *Client) *Loader {
	return &Loader{Client: client}
}

// LoadTokenizer implements core.ModelLoader.
func (l *Loader) LoadTokenizer(ctx context.Context, id string, opts core.LoadOptions) (core.Tokenizer, error) {
	tok, err := l.Client.LoadTokenizer(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// LoadClassifier implements core.ModelLoader.
func (l *Loader) LoadClassifier(ctx context.Context, id string, opts core.LoadOptions) (core.Classifier, error) {
	model, err := l.Client.LoadModel(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	return model, nil
}

var _ core.ModelLoader = (*Loader)(nil)
