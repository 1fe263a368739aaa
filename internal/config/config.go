package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Paths    PathsConfig
	Labeling LabelingConfig
	Logging  LoggingConfig
}

type PathsConfig struct {
	ModelsFile   string
	CorpusDir    string
	MetadataFile string
	Explanations string
	GroundTruth  string
	ResultsCSV   string
	DetailsJSON  string
	Leaderboard  string
}

type LabelingConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Paths: PathsConfig{
			ModelsFile:   getEnv("MODELS_CONFIG", "models.yaml"),
			CorpusDir:    getEnv("COMICS_DIR", "comics"),
			MetadataFile: getEnv("COMICS_METADATA", "comics_metadata.json"),
			Explanations: getEnv("EXPLANATIONS_FILE", "ai_explanations.json"),
			GroundTruth:  getEnv("GROUND_TRUTH_FILE", "ground_truth_labels.json"),
			ResultsCSV:   getEnv("BENCHMARK_CSV", "benchmark_results.csv"),
			DetailsJSON:  getEnv("BENCHMARK_DETAILS", "benchmark_details.json"),
			Leaderboard:  getEnv("LEADERBOARD_FILE", "leaderboard.html"),
		},
		Labeling: LabelingConfig{
			Addr: getEnv("LABELING_ADDR", "127.0.0.1:5000"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Paths.ModelsFile == "" {
		return fmt.Errorf("MODELS_CONFIG is required")
	}
	if c.Paths.CorpusDir == "" {
		return fmt.Errorf("COMICS_DIR is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
