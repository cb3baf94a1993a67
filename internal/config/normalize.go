package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOrganize()
	c.normalizeCaption()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SourceDir, err = expandPath(strings.TrimSpace(c.Paths.SourceDir)); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if c.Paths.DestinationDir, err = expandPath(strings.TrimSpace(c.Paths.DestinationDir)); err != nil {
		return fmt.Errorf("paths.destination_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir()
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOrganize() {
	folder := strings.TrimSpace(c.Organize.NoExtensionFolder)
	c.Organize.NoExtensionFolder = strings.Trim(folder, "/\\")
}

func (c *Config) normalizeCaption() {
	c.Caption.APIKey = strings.TrimSpace(c.Caption.APIKey)
	if c.Caption.APIKey == sampleAPIKeyPlaceholder {
		c.Caption.APIKey = ""
	}
	if c.Caption.APIKey == "" {
		if value, ok := os.LookupEnv("FILESORT_CAPTION_API_KEY"); ok {
			c.Caption.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Caption.APIKey = strings.TrimSpace(value)
		}
	}
	c.Caption.BaseURL = strings.TrimRight(strings.TrimSpace(c.Caption.BaseURL), "/")
	if c.Caption.BaseURL == "" {
		c.Caption.BaseURL = defaultCaptionBaseURL
	}
	c.Caption.Model = strings.TrimSpace(c.Caption.Model)
	if c.Caption.Model == "" {
		c.Caption.Model = defaultCaptionModel
	}
	c.Caption.Prompt = strings.TrimSpace(c.Caption.Prompt)
	if c.Caption.Prompt == "" {
		c.Caption.Prompt = defaultCaptionPrompt
	}
	if c.Caption.TimeoutSeconds <= 0 {
		c.Caption.TimeoutSeconds = defaultCaptionTimeout
	}
	if c.Caption.JPEGQuality <= 0 {
		c.Caption.JPEGQuality = defaultCaptionJPEGQuality
	}
	if c.Caption.Concurrency <= 0 {
		c.Caption.Concurrency = defaultCaptionConcurrency
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
