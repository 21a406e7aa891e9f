package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/orderwatch/dupguard/internal/domain"
)

// Settings holds the detector options for one run.
type Settings struct {
	MaxDays              int           `json:"max_days" yaml:"max_days" validate:"gte=0,lte=30"`
	MinAmountSimilarity  float64       `json:"min_amount_similarity" yaml:"min_amount_similarity" validate:"gte=0,lte=1"`
	MinProductSimilarity float64       `json:"min_product_similarity" yaml:"min_product_similarity" validate:"gte=0,lte=1"`
	AmountPrecision      int           `json:"amount_precision" yaml:"amount_precision" validate:"gte=0,lte=6"`
	QuantityPrecision    int           `json:"quantity_precision" yaml:"quantity_precision" validate:"gte=0,lte=6"`
	ExactStatus          domain.Status `json:"exact_status" yaml:"exact_status" validate:"omitempty,oneof=RET PRC"`
	HeaderMarker         string        `json:"header_marker" yaml:"header_marker" validate:"required"`
	HeaderScanLines      int           `json:"header_scan_lines" yaml:"header_scan_lines" validate:"gte=1"`
}

const (
	DefaultMaxDays              = 2
	DefaultMinAmountSimilarity  = 0.95
	DefaultMinProductSimilarity = 0.85
	DefaultAmountPrecision      = 2
	DefaultQuantityPrecision    = 3
	DefaultHeaderMarker         = "F.Pedido"
	DefaultHeaderScanLines      = 2000
)

var validate = validator.New()

func DefaultSettings() Settings {
	return Settings{
		MaxDays:              DefaultMaxDays,
		MinAmountSimilarity:  DefaultMinAmountSimilarity,
		MinProductSimilarity: DefaultMinProductSimilarity,
		AmountPrecision:      DefaultAmountPrecision,
		QuantityPrecision:    DefaultQuantityPrecision,
		HeaderMarker:         DefaultHeaderMarker,
		HeaderScanLines:      DefaultHeaderScanLines,
	}
}

func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Canonical returns a stable encoding of the settings, used to fingerprint
// runs so that identical input under identical settings is detected once.
func (s Settings) Canonical() string {
	b, _ := json.Marshal(s)
	return string(b)
}

// LoadSettingsFile reads a YAML detector profile. Keys absent from the file
// keep their default values.
func LoadSettingsFile(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, s.Validate()
}
