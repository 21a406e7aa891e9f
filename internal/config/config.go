package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/orderwatch/dupguard/internal/domain"
)

// Config is the service configuration, read from the environment.
type Config struct {
	Port        string
	DBPath      string
	LogLevel    string
	PrettyLogs  bool
	MaxUploadMB int
	Detector    Settings
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port:        envString("PORT", "8080"),
		DBPath:      envString("DB_PATH", "dupguard.db"),
		LogLevel:    envString("LOG_LEVEL", "info"),
		PrettyLogs:  envBool("PRETTY_LOGS", false),
		MaxUploadMB: envInt("MAX_UPLOAD_MB", 32),
		Detector:    DefaultSettings(),
	}

	d := &cfg.Detector
	d.MaxDays = envInt("DETECTOR_MAX_DAYS", d.MaxDays)
	d.MinAmountSimilarity = envFloat("DETECTOR_MIN_AMOUNT_SIMILARITY", d.MinAmountSimilarity)
	d.MinProductSimilarity = envFloat("DETECTOR_MIN_PRODUCT_SIMILARITY", d.MinProductSimilarity)
	d.AmountPrecision = envInt("DETECTOR_AMOUNT_PRECISION", d.AmountPrecision)
	d.QuantityPrecision = envInt("DETECTOR_QUANTITY_PRECISION", d.QuantityPrecision)
	d.ExactStatus = domain.Status(strings.ToUpper(envString("DETECTOR_EXACT_STATUS", string(d.ExactStatus))))
	d.HeaderMarker = envString("DETECTOR_HEADER_MARKER", d.HeaderMarker)
	d.HeaderScanLines = envInt("DETECTOR_HEADER_SCAN_LINES", d.HeaderScanLines)

	if cfg.MaxUploadMB < 1 {
		return cfg, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}
	return cfg, cfg.Detector.Validate()
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}
