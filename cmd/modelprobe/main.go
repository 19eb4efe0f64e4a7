// Command modelprobe checks that Hugging Face text-classification models can
// be fetched and run, and prints their logits and probabilities.
//
// Configuration is loaded from environment variables (and .env):
//   - HUGGING_FACE_API_KEY, HUGGINGFACE_API_KEY or HF_TOKEN: hub token (optional)
//   - MODELPROBE_INFERENCE_URL: inference endpoint override
//   - MODELPROBE_CACHE_DIR: where hub files are downloaded
//   - MODELPROBE_MODELS: comma-separated key=org/name list of models to check
//   - MODELPROBE_MODELS_FILE: YAML or JSON list of models to check
//   - REDIS_URL, MODELPROBE_HISTORY_FILE: where --record keeps run history
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logpkg "modelprobe/internal/log"

	"github.com/joho/godotenv"
)

// CLI exit codes.
const (
	// ExitSuccess indicates every model check passed.
	ExitSuccess = 0

	// ExitFailure indicates at least one model check failed, or another error occurred.
	ExitFailure = 1

	// ExitInvalidArgs indicates invalid command line arguments or configuration.
	ExitInvalidArgs = 2
)

func main() {
	dotenvErr := godotenv.Load()

	logger := logpkg.CreateLogger()

	if dotenvErr != nil {
		logger.Warn("No .env file found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := newRootCommand(logger)
	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errChecksFailed) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}

	stop()
	_ = logger.Close()
	os.Exit(exitCodeFromError(err))
}

// exitCodeFromError maps error types to exit codes.
func exitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *usageError
	if errors.As(err, &usage) {
		return ExitInvalidArgs
	}
	return ExitFailure
}
