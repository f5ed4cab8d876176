package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/meigma/assetpack"
	"github.com/meigma/assetpack/config"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logger *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Log.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// log returns a logger writing to w at the configured level and format.
func (c *commandContext) log(w io.Writer) *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return slog.New(slog.DiscardHandler)
	}
	lvl, _ := cfg.LogLevel() //nolint:errcheck // validated on load
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.Log.Format == "json" {
		c.logger = slog.New(slog.NewJSONHandler(w, opts))
	} else {
		c.logger = slog.New(slog.NewTextHandler(w, opts))
	}
	return c.logger
}

// openLoader creates a loader over root, or the configured root when root
// is empty.
func (c *commandContext) openLoader(ctx context.Context, root string, logOut io.Writer) (*assetpack.Loader, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if root == "" {
		root = cfg.Content.Root
	}
	opts, err := cfg.LoaderOptions(c.log(logOut))
	if err != nil {
		return nil, err
	}
	l, err := assetpack.New(ctx, root, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", root, err)
	}
	return l, nil
}
