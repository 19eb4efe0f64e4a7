package hub

import (
	"context"
	"fmt"

	"modelprobe/internal/core"

	"github.com/seasonjs/hf-hub/api"
)

// HFConfig configures HFRepoFiles.
type HFConfig struct {
	Token    string
	CacheDir string
}

// HFRepoFiles reads repositories through the hf-hub API. Downloads land in
// the hub cache directory.
type HFRepoFiles struct {
	api *api.Api
}

// NewHFRepoFiles creates an HFRepoFiles. An empty CacheDir keeps the
// library's default cache location.
func NewHFRepoFiles(cfg HFConfig) (*HFRepoFiles, error) {
	builder, err := api.NewApiBuilder()
	if err != nil {
		return nil, fmt.Errorf("creating hub api: %w", err)
	}
	builder = builder.WithProgress(false)
	if cfg.Token != "" {
		builder = builder.WithToken(cfg.Token)
	}
	if cfg.CacheDir != "" {
		builder = builder.WithCacheDir(cfg.CacheDir)
	}

	hapi, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("creating hub api: %w", err)
	}
	return &HFRepoFiles{api: hapi}, nil
}

func (f *HFRepoFiles) repo(id, revision string) *api.ApiRepo {
	if revision == "" {
		revision = core.DefaultRevision
	}
	return f.api.Repo(api.NewRepoWithRevision(id, api.Model, revision))
}

// Info lists the files of repository id at revision.
func (f *HFRepoFiles) Info(ctx context.Context, id, revision string) (*core.HubModelInfo, error) {
	info, err := f.repo(id, revision).Info(ctx)
	if err != nil {
		return nil, err
	}

	out := &core.HubModelInfo{
		ID:       id,
		Sha:      info.Sha,
		Siblings: make([]core.HubSibling, 0, len(info.Siblings)),
	}
	for _, s := range info.Siblings {
		out.Siblings = append(out.Siblings, core.HubSibling{RFilename: s.Rfilename})
	}
	return out, nil
}

// Get downloads filename at revision, or reuses the cached copy.
func (f *HFRepoFiles) Get(ctx context.Context, id, revision, filename string) (string, error) {
	return f.repo(id, revision).Get(ctx, filename)
}

var _ core.RepoFiles = (*HFRepoFiles)(nil)
