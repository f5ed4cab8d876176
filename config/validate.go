package config

import (
	"errors"
	"fmt"
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Content.Root == "" {
		errs = append(errs, errors.New("content.root must be set"))
	}
	if len(c.Content.ArchiveExtension) < 2 {
		errs = append(errs, fmt.Errorf("content.archive_extension %q is empty", c.Content.ArchiveExtension))
	}
	if _, err := c.MaxAssetSize(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.CacheBudget(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
