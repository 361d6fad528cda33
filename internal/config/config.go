// Package config loads the optional YAML config file and overlays the
// environment. Flags are applied by the caller afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mj1618/desktop-extract/internal/acquire"
	"github.com/mj1618/desktop-extract/internal/extract"
	"github.com/mj1618/desktop-extract/internal/navigate"
)

// FileConfig is the config file schema. Durations are strings such as
// "300ms" or "1m".
type FileConfig struct {
	App       string `yaml:"app"`
	BundleID  string `yaml:"bundleID"`
	Format    string `yaml:"format"`
	OutputDir string `yaml:"outputDir"`

	Notion struct {
		Token      string  `yaml:"token"`
		Collection string  `yaml:"collection"`
		RPS        float64 `yaml:"rps"`
	} `yaml:"notion"`

	LLM struct {
		BaseURL string `yaml:"base"`
		APIKey  string `yaml:"key"`
	} `yaml:"llm"`

	Gemini struct {
		APIKey string `yaml:"key"`
	} `yaml:"gemini"`

	OCR struct {
		Backend       string  `yaml:"backend"`
		Tesseract     string  `yaml:"tesseract"`
		Lang          string  `yaml:"lang"`
		Model         string  `yaml:"model"`
		Workers       int     `yaml:"workers"`
		MinConfidence float64 `yaml:"minConfidence"`
	} `yaml:"ocr"`

	Vision struct {
		Provider      string  `yaml:"provider"`
		Model         string  `yaml:"model"`
		MinConfidence float64 `yaml:"minConfidence"`
		Settle        string  `yaml:"settle"`
	} `yaml:"vision"`

	Extract struct {
		MaxScrolls   int    `yaml:"maxScrolls"`
		StablePolls  int    `yaml:"stablePolls"`
		PollInterval string `yaml:"pollInterval"`
		Timeout      string `yaml:"timeout"`
		MinArea      int    `yaml:"minArea"`
	} `yaml:"extract"`

	Navigate struct {
		PollInterval string `yaml:"pollInterval"`
		Timeout      string `yaml:"timeout"`
		QuietPolls   int    `yaml:"quietPolls"`
		RetryBackoff string `yaml:"retryBackoff"`
	} `yaml:"navigate"`
}

// Config is the resolved configuration.
type Config struct {
	App       string
	BundleID  string
	Format    string
	OutputDir string

	NotionToken      string
	NotionCollection string
	NotionRPS        float64

	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string

	OCRBackend       string
	TesseractPath    string
	TesseractLang    string
	OCRModel         string
	OCRWorkers       int
	OCRMinConfidence float64

	VisionProvider      string // openai, gemini, none; empty picks by available key
	VisionModel         string
	VisionMinConfidence float64
	VisionSettle        time.Duration

	Extract  extract.Options
	Navigate navigate.Options
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		App:                 "Notion",
		BundleID:            "notion.id",
		Format:              "yaml",
		OutputDir:           "output",
		OCRBackend:          "auto",
		OCRWorkers:          4,
		OCRMinConfidence:    0.3,
		VisionMinConfidence: 0.5,
		VisionSettle:        10 * time.Second,
		Extract:             extract.DefaultOptions(),
		Navigate:            navigate.DefaultOptions(),
	}
}

// DefaultPath is ~/.config/desktop-extract/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "desktop-extract", "config.yaml")
}

// LoadFile reads a YAML config file.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse yaml: %w", err)
	}
	return fc, nil
}

func duration(field, s string, dst *time.Duration) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}

// Apply overlays every value set in fc onto cfg.
func Apply(cfg *Config, fc FileConfig) error {
	if fc.App != "" {
		cfg.App = fc.App
	}
	if fc.BundleID != "" {
		cfg.BundleID = fc.BundleID
	}
	if fc.Format != "" {
		cfg.Format = fc.Format
	}
	if fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}

	if fc.Notion.Token != "" {
		cfg.NotionToken = fc.Notion.Token
	}
	if fc.Notion.Collection != "" {
		cfg.NotionCollection = fc.Notion.Collection
	}
	if fc.Notion.RPS > 0 {
		cfg.NotionRPS = fc.Notion.RPS
	}

	if fc.LLM.BaseURL != "" {
		cfg.OpenAIBaseURL = fc.LLM.BaseURL
	}
	if fc.LLM.APIKey != "" {
		cfg.OpenAIKey = fc.LLM.APIKey
	}
	if fc.Gemini.APIKey != "" {
		cfg.GeminiKey = fc.Gemini.APIKey
	}

	if fc.OCR.Backend != "" {
		cfg.OCRBackend = fc.OCR.Backend
	}
	if fc.OCR.Tesseract != "" {
		cfg.TesseractPath = fc.OCR.Tesseract
	}
	if fc.OCR.Lang != "" {
		cfg.TesseractLang = fc.OCR.Lang
	}
	if fc.OCR.Model != "" {
		cfg.OCRModel = fc.OCR.Model
	}
	if fc.OCR.Workers > 0 {
		cfg.OCRWorkers = fc.OCR.Workers
	}
	if fc.OCR.MinConfidence > 0 {
		cfg.OCRMinConfidence = fc.OCR.MinConfidence
	}

	if fc.Vision.Provider != "" {
		cfg.VisionProvider = fc.Vision.Provider
	}
	if fc.Vision.Model != "" {
		cfg.VisionModel = fc.Vision.Model
	}
	if fc.Vision.MinConfidence > 0 {
		cfg.VisionMinConfidence = fc.Vision.MinConfidence
	}

	if fc.Extract.MaxScrolls > 0 {
		cfg.Extract.MaxScrolls = fc.Extract.MaxScrolls
	}
	if fc.Extract.StablePolls > 0 {
		cfg.Extract.StablePolls = fc.Extract.StablePolls
	}
	if fc.Extract.MinArea > 0 {
		cfg.Extract.MinArea = fc.Extract.MinArea
	}
	if fc.Navigate.QuietPolls > 0 {
		cfg.Navigate.QuietPolls = fc.Navigate.QuietPolls
	}

	return errors.Join(
		duration("vision.settle", fc.Vision.Settle, &cfg.VisionSettle),
		duration("extract.pollInterval", fc.Extract.PollInterval, &cfg.Extract.PollInterval),
		duration("extract.timeout", fc.Extract.Timeout, &cfg.Extract.Timeout),
		duration("navigate.pollInterval", fc.Navigate.PollInterval, &cfg.Navigate.PollInterval),
		duration("navigate.timeout", fc.Navigate.Timeout, &cfg.Navigate.Timeout),
		duration("navigate.retryBackoff", fc.Navigate.RetryBackoff, &cfg.Navigate.RetryBackoff),
	)
}

// Env variables read by ApplyEnv.
const (
	EnvNotionToken   = "NOTION_TOKEN"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvGeminiKey     = "GEMINI_API_KEY"
)

// ApplyEnv overlays credentials from the environment. lookup is usually
// os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvNotionToken); ok && v != "" {
		cfg.NotionToken = v
	}
	if v, ok := lookup(EnvOpenAIKey); ok && v != "" {
		cfg.OpenAIKey = v
	}
	if v, ok := lookup(EnvOpenAIBaseURL); ok && v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v, ok := lookup(EnvGeminiKey); ok && v != "" {
		cfg.GeminiKey = v
	}
}

// Load resolves defaults, then the file at path, then the environment. A
// missing file is only an error when path was given explicitly.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if path != "" {
		fc, err := LoadFile(path)
		switch {
		case err == nil:
			if err := Apply(&cfg, fc); err != nil {
				return cfg, fmt.Errorf("config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	ApplyEnv(&cfg, os.LookupEnv)
	cfg.Extract.AppName = cfg.App
	cfg.Navigate.AppName = cfg.App
	cfg.Extract.OCRWorkers = cfg.OCRWorkers
	cfg.Extract.OCRMinConfidence = cfg.OCRMinConfidence
	return cfg, nil
}

// VisionOptions returns the settings of the vision strategy.
func (c Config) VisionOptions() acquire.VisionOptions {
	o := acquire.DefaultVisionOptions()
	o.MinConfidence = c.VisionMinConfidence
	o.Timeout = c.VisionSettle
	o.PollInterval = c.Navigate.PollInterval
	o.QuietPolls = c.Navigate.QuietPolls
	return o
}
