package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-level settings. Analysis thresholds live in
// session.Config.
type Config struct {
	DBPath          string
	DetectorAddr    string
	DetectorTimeout time.Duration
	LogLevel        string
	Workers         int
	FrameInterval   int
}

// Load reads an optional .env file, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file, using process environment")
	}

	return Config{
		DBPath:          getEnv("ANALYZER_DB", "analysis.db"),
		DetectorAddr:    getEnv("DETECTOR_ADDR", "localhost:50051"),
		DetectorTimeout: time.Duration(getEnvInt("DETECTOR_TIMEOUT_SEC", 30)) * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Workers:         getEnvInt("ANALYZER_WORKERS", 4),
		FrameInterval:   getEnvInt("FRAME_INTERVAL", 2),
	}
}

func getEnv(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvInt ignores values that are not positive integers.
func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}
