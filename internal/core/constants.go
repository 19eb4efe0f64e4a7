package core

import "time"

// Hub endpoint constants
const (
	DefaultHubURL       = "https://huggingface.co"
	DefaultInferenceURL = "https://api-inference.huggingface.co/models"
	DefaultRevision     = "main"
)

// Hub artifact file names
const (
	ConfigFileName          = "config.json"
	TokenizerConfigFileName = "tokenizer_config.json"
)

// TokenizerArtifacts lists files any one of which makes a tokenizer loadable.
// vocab.json only counts together with merges.txt.
var TokenizerArtifacts = []string{
	"tokenizer.json",
	"sentencepiece.bpe.model",
	"spiece.model",
	"vocab.txt",
	"vocab.json",
}

// WeightArtifacts lists files any one of which makes model weights loadable.
var WeightArtifacts = []string{
	"model.safetensors",
	"model.safetensors.index.json",
	"pytorch_model.bin",
	"pytorch_model.bin.index.json",
	"tf_model.h5",
	"flax_model.msgpack",
}

// SequenceClassificationSuffix marks a classification head in config.json architectures.
const SequenceClassificationSuffix = "ForSequenceClassification"

// Token environment variables, checked in order.
var TokenEnvVars = []string{"HUGGING_FACE_API_KEY", "HUGGINGFACE_API_KEY", "HF_TOKEN"}

// Default config constants
const (
	DefaultTimeout       = 2 * time.Minute
	DefaultInferenceRate = 1.0
	DefaultHistoryFile   = "modelprobe_history.json"
	TokenDisplayPrefix   = 10
)

// Probe stages, used as metric labels.
const (
	StageModelInfo = "model_info"
	StageFile      = "file"
	StageInference = "inference"
)

// Summary status strings
const (
	StatusAccessible = "✅ ACCESSIBLE"
	StatusFailed     = "❌ FAILED"
)

// Banner width for section separators.
const BannerWidth = 60

// Content type and header constants
const (
	ContentTypeJSON     = "application/json"
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"
	AuthBearerPrefix    = "Bearer "
	UserAgent           = "modelprobe/1.0"
)

// Environment variable names
const (
	EnvInferenceURL = "MODELPROBE_INFERENCE_URL"
	EnvCacheDir     = "MODELPROBE_CACHE_DIR"
	EnvModels       = "MODELPROBE_MODELS"
	EnvRevision     = "MODELPROBE_REVISION"
	EnvTimeout      = "MODELPROBE_TIMEOUT"
	EnvRate         = "MODELPROBE_RATE"
	EnvModelsFile   = "MODELPROBE_MODELS_FILE"
	EnvHistoryFile  = "MODELPROBE_HISTORY_FILE"
	EnvRedisURL     = "REDIS_URL"
)
