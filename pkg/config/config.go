package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Completion CompletionConfig
	Pipeline   PipelineConfig
	Paths      PathsConfig
}

// CompletionConfig holds completion-service configuration,
// loaded from COMPLETION_* environment variables
type CompletionConfig struct {
	BaseURL     string        `envconfig:"BASE_URL" default:"http://localhost:11434/v1"`
	APIKey      string        `envconfig:"API_KEY"`
	Model       string        `envconfig:"MODEL" default:"qwen2.5:32b"`
	Temperature float64       `envconfig:"TEMPERATURE" default:"0.1"`
	MaxTokens   int           `envconfig:"MAX_TOKENS" default:"2000"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// PipelineConfig holds pipeline tuning parameters
type PipelineConfig struct {
	WindowSize          int     // max utterances per extraction window
	Concurrency         int     // concurrent transcripts in extract/classify
	ExtractRetries      int     // corrective re-asks after a malformed response
	SimilarityThreshold float64 // description similarity for a logical-item match
	JudgeLowThreshold   float64 // lower bound of the ambiguous band sent to the judge
	LabelConfidence     float64 // classifier confidence below which a new workstream is created
	CacheTTL            time.Duration
}

// PathsConfig holds input/output locations
type PathsConfig struct {
	TranscriptsDir string
	OutputDir      string
	StateFile      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var completion CompletionConfig
	if err := envconfig.Process("COMPLETION", &completion); err != nil {
		return nil, fmt.Errorf("failed to load completion config: %w", err)
	}

	config := &Config{
		Completion: completion,
		Pipeline: PipelineConfig{
			WindowSize:          getEnvAsInt("PIPELINE_WINDOW_SIZE", 40),
			Concurrency:         getEnvAsInt("PIPELINE_CONCURRENCY", 3),
			ExtractRetries:      getEnvAsInt("PIPELINE_EXTRACT_RETRIES", 2),
			SimilarityThreshold: getEnvAsFloat("PIPELINE_SIMILARITY_THRESHOLD", 0.5),
			JudgeLowThreshold:   getEnvAsFloat("PIPELINE_JUDGE_LOW_THRESHOLD", 0.3),
			LabelConfidence:     getEnvAsFloat("PIPELINE_LABEL_CONFIDENCE", 0.6),
			CacheTTL:            getEnvAsDuration("PIPELINE_CACHE_TTL", "1h"),
		},
		Paths: PathsConfig{
			TranscriptsDir: getEnv("TRANSCRIPTS_DIR", "transcripts"),
			OutputDir:      getEnv("OUTPUT_DIR", "output"),
			StateFile:      getEnv("STATE_FILE", "state/workstreams.json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Pipeline.WindowSize < 1 {
		return fmt.Errorf("PIPELINE_WINDOW_SIZE must be at least 1")
	}
	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("PIPELINE_CONCURRENCY must be at least 1")
	}
	if c.Pipeline.SimilarityThreshold <= 0 || c.Pipeline.SimilarityThreshold > 1 {
		return fmt.Errorf("PIPELINE_SIMILARITY_THRESHOLD must be in (0,1]")
	}
	if c.Pipeline.JudgeLowThreshold > c.Pipeline.SimilarityThreshold {
		return fmt.Errorf("PIPELINE_JUDGE_LOW_THRESHOLD must not exceed PIPELINE_SIMILARITY_THRESHOLD")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
