package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"smart-scraper/output"
)

const DefaultRankEndpoint = "http://data.alexa.com/data?cli=10&dat=snbamz"

type Config struct {
	DatabaseURL    string
	UserAgent      string
	RequestTimeout int
	RankEndpoint   string
	OutputFile     string
	LogLevel       string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		UserAgent:      getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"),
		RequestTimeout: getEnvInt("REQUEST_TIMEOUT", 30),
		RankEndpoint:   getEnv("RANK_ENDPOINT", DefaultRankEndpoint),
		OutputFile:     getEnv("OUTPUT_FILE", output.DefaultFilename),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

// Timeout is RequestTimeout as a duration, never less than one second.
func (c *Config) Timeout() time.Duration {
	if c.RequestTimeout < 1 {
		return time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
