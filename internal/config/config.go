package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the speech-session service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	WakeTimeout         time.Duration
	SilenceTimeout      time.Duration
	ReportInterval      time.Duration
	WakeWindow          time.Duration
	WakeWindowFlush     time.Duration
	ErrorAlertThreshold int

	ChunkQueueCapacity int

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:            envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:    envOrDefault("APP_METRICS_NAMESPACE", "voicebridge"),
		AllowAnyOrigin:      false,
		ShutdownTimeout:     15 * time.Second,
		WakeTimeout:         10 * time.Second,
		SilenceTimeout:      5 * time.Second,
		ReportInterval:      time.Minute,
		WakeWindow:          time.Minute,
		WakeWindowFlush:     5 * time.Second,
		ErrorAlertThreshold: 3,
		ChunkQueueCapacity:  256,
		DatabaseURL:         trimmedEnv("DATABASE_URL"),
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.WakeTimeout, err = durationFromEnv("APP_WAKE_TIMEOUT", cfg.WakeTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SilenceTimeout, err = durationFromEnv("APP_SILENCE_TIMEOUT", cfg.SilenceTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ReportInterval, err = durationFromEnv("APP_REPORT_INTERVAL", cfg.ReportInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.WakeWindow, err = durationFromEnv("APP_WAKE_WINDOW", cfg.WakeWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.WakeWindowFlush, err = durationFromEnv("APP_WAKE_WINDOW_FLUSH", cfg.WakeWindowFlush)
	if err != nil {
		return Config{}, err
	}
	cfg.ErrorAlertThreshold, err = intFromEnv("APP_ERROR_ALERT_THRESHOLD", cfg.ErrorAlertThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.ChunkQueueCapacity, err = intFromEnv("APP_CHUNK_QUEUE_CAPACITY", cfg.ChunkQueueCapacity)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.WakeTimeout < time.Second {
		return Config{}, fmt.Errorf("APP_WAKE_TIMEOUT must be at least 1s")
	}
	if cfg.SilenceTimeout < 500*time.Millisecond {
		return Config{}, fmt.Errorf("APP_SILENCE_TIMEOUT must be at least 500ms")
	}
	if cfg.ErrorAlertThreshold <= 0 {
		return Config{}, fmt.Errorf("APP_ERROR_ALERT_THRESHOLD must be positive")
	}
	if cfg.ChunkQueueCapacity <= 0 {
		return Config{}, fmt.Errorf("APP_CHUNK_QUEUE_CAPACITY must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
