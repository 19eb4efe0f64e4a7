// Package storage keeps the history of recorded probe runs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"modelprobe/internal/core"
	"modelprobe/internal/util"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// FileStorage keeps run history in a JSON file, newest run first.
type FileStorage struct {
	filePath string
	limit    int
	mu       sync.Mutex
}

// NewFileStorage creates a file store at filePath.
func NewFileStorage(filePath string) *FileStorage {
	if filePath == "" {
		filePath = core.DefaultHistoryFile
	}
	return &FileStorage{filePath: filePath, limit: core.HistoryLimit}
}

// SaveRun prepends run to the history file, keeping at most HistoryLimit runs.
func (fs *FileStorage) SaveRun(_ context.Context, run *core.RunReport) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	runs, err := fs.read()
	if err != nil {
		return err
	}

	runs = append([]core.RunReport{*run}, runs...)
	if len(runs) > fs.limit {
		runs = runs[:fs.limit]
	}

	data, err := sonic.MarshalIndent(runs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fs.filePath, data, core.FilePermissionReadWrite)
}

// LoadRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (fs *FileStorage) LoadRuns(_ context.Context, limit int) ([]core.RunReport, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	runs, err := fs.read()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (fs *FileStorage) read() ([]core.RunReport, error) {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []core.RunReport{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return []core.RunReport{}, nil
	}

	var runs []core.RunReport
	if err := sonic.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fs.filePath, err)
	}
	return runs, nil
}

func (fs *FileStorage) Close() error {
	return nil
}

// RedisStorage keeps run history in a Redis list, newest run first.
type RedisStorage struct {
	client *redis.Client
	key    string
	limit  int
}

// RedisStorageConfig Redis storage config
type RedisStorageConfig struct {
	URL string
	Key string
}

func NewRedisStorage(ctx context.Context, config RedisStorageConfig) (*RedisStorage, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, err
	}

	key := config.Key
	if key == "" {
		key = core.HistoryRedisKey
	}

	return &RedisStorage{client: client, key: key, limit: core.HistoryLimit}, nil
}

func (rs *RedisStorage) SaveRun(ctx context.Context, run *core.RunReport) error {
	data, err := util.MarshalJSON(run)
	if err != nil {
		return err
	}

	pipe := rs.client.TxPipeline()
	pipe.LPush(ctx, rs.key, data)
	pipe.LTrim(ctx, rs.key, 0, int64(rs.limit-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (rs *RedisStorage) LoadRuns(ctx context.Context, limit int) ([]core.RunReport, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	vals, err := rs.client.LRange(ctx, rs.key, 0, stop).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []core.RunReport{}, nil
		}
		return nil, err
	}

	runs := make([]core.RunReport, 0, len(vals))
	for _, val := range vals {
		var run core.RunReport
		if err := sonic.UnmarshalString(val, &run); err != nil {
			return nil, fmt.Errorf("parsing run from %s: %w", rs.key, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}

// InitStorage picks Redis when redisURL is set and reachable, and the
// history file otherwise.
func InitStorage(ctx context.Context, logger core.Logger, redisURL, filePath string) core.RunStore {
	if redisURL != "" {
		redisStorage, err := NewRedisStorage(ctx, RedisStorageConfig{
			URL: redisURL,
			Key: core.HistoryRedisKey,
		})
		if err != nil {
			logger.Warn("Failed to initialize Redis storage: %v, falling back to file storage", err)
			return NewFileStorage(filePath)
		}
		logger.Debug("Using Redis storage")
		return redisStorage
	}

	logger.Debug("Using file storage: %s", filePath)
	return NewFileStorage(filePath)
}

var (
	_ core.RunStore = (*FileStorage)(nil)
	_ core.RunStore = (*RedisStorage)(nil)
)
