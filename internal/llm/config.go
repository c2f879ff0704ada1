package llm

import (
	"os"
	"strconv"
)

// TaskType identifies the classification prompt variant in use.
type TaskType string

const (
	// TaskClassifyInbox classifies staged notes; uncertainty routes to Archive.
	TaskClassifyInbox TaskType = "classify_inbox"
	// TaskClassifyArchive re-evaluates archived notes; Archive is "keep".
	TaskClassifyArchive TaskType = "classify_archive"
)

// TaskConfig holds per-task generation parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides the global timeout when > 0
}

// Config holds the LLM subsystem configuration.
type Config struct {
	Endpoint   string
	Model      string
	TimeoutMs  int
	MaxRetries int
	Tasks      map[TaskType]TaskConfig
}

// DefaultConfig returns the defaults for a local Ollama endpoint.
func DefaultConfig() Config {
	return Config{
		Endpoint:   "http://localhost:11434",
		Model:      "llama3.2",
		TimeoutMs:  60000,
		MaxRetries: 1,
		Tasks: map[TaskType]TaskConfig{
			TaskClassifyInbox:   {Temperature: 0.1, MaxTokens: 512},
			TaskClassifyArchive: {Temperature: 0.1, MaxTokens: 512},
		},
	}
}

// LoadConfig reads the LLM configuration from the environment, falling back
// to defaults for unset values. The model name normally comes from the
// config document and is applied by the caller.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("PARA_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("PARA_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("PARA_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("PARA_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	return cfg
}

// TaskTimeout returns the effective timeout for a task.
func (c Config) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}
