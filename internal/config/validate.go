package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validateCaption(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	src := strings.TrimSpace(c.Paths.SourceDir)
	dst := strings.TrimSpace(c.Paths.DestinationDir)
	if src != "" && src == dst {
		return errors.New("paths.destination_dir must differ from paths.source_dir")
	}
	return nil
}

func (c *Config) validateOrganize() error {
	folder := c.Organize.NoExtensionFolder
	if strings.ContainsAny(folder, `/\`) {
		return fmt.Errorf("organize.no_extension_folder %q must be a single folder name", folder)
	}
	if strings.EqualFold(folder, reservedImagesFolderName) {
		return fmt.Errorf("organize.no_extension_folder must not be %q", reservedImagesFolderName)
	}
	return nil
}

func (c *Config) validateCaption() error {
	if err := ensurePositiveMap(map[string]int{
		"caption.timeout_seconds": c.Caption.TimeoutSeconds,
		"caption.concurrency":     c.Caption.Concurrency,
	}); err != nil {
		return err
	}
	if c.Caption.Concurrency > maxCaptionConcurrency {
		return fmt.Errorf("caption.concurrency must be at most %d", maxCaptionConcurrency)
	}
	if c.Caption.MaxWidth < 0 {
		return errors.New("caption.max_width must be >= 0")
	}
	if c.Caption.JPEGQuality < 1 || c.Caption.JPEGQuality > 100 {
		return errors.New("caption.jpeg_quality must be between 1 and 100")
	}
	if c.Caption.RequestsPerMinute < 0 {
		return errors.New("caption.requests_per_minute must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
