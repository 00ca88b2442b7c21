package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"pinscraper/pkg/board"
	"pinscraper/pkg/cache"
	"pinscraper/pkg/config"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/pinterest"
	"pinscraper/pkg/ratelimit"
)

// globalFlags collects the persistent flags the user actually set
func globalFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
	}
	if cmd.Flags().Changed("base-url") {
		flags["base-url"] = baseURL
	}
	if cmd.Flags().Changed("request-interval") {
		flags["request-interval"] = requestInterval
	}
	return flags
}

// setup loads the configuration and builds the logger every command shares
func setup(flags map[string]interface{}) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	log.DebugWithFields("configuration loaded", map[string]interface{}{
		"base_url":      cfg.Pinterest.BaseURL,
		"cache_enabled": cfg.Cache.Enabled,
		"version":       version,
	})

	return cfg, log, nil
}

// newClient builds a site client from the pinterest section of cfg
func newClient(cfg *config.Config, log logger.Logger) *pinterest.Client {
	return pinterest.NewClient(pinterest.Options{
		BaseURL:   cfg.Pinterest.BaseURL,
		UserAgent: cfg.Pinterest.UserAgent,
		Timeout:   cfg.Pinterest.RequestTimeout,
		Limiter:   ratelimit.NewInterval(cfg.Pinterest.RequestInterval),
		Logger:    log,
	})
}

// boardArgs validates the <user> <board> positional arguments
func boardArgs(args []string) (string, string, error) {
	userName := pinterest.SanitizeName(args[0])
	boardName := pinterest.SanitizeName(args[1])

	for _, name := range []string{userName, boardName} {
		if !pinterest.IsValidName(name) {
			return "", "", fmt.Errorf("invalid name %q", name)
		}
	}
	return userName, boardName, nil
}

// cachePathFor picks the explicit cache file, the configured default, or none
func cachePathFor(cfg *config.Config, explicit, userName, boardName string) string {
	if explicit != "" {
		return explicit
	}
	if !cfg.Cache.Enabled {
		return ""
	}
	return cfg.CachePath(userName, boardName)
}

// boardCachePath returns the cache file the command uses, deleting it first
// when --clear-cache is set. An empty path means no cache.
func boardCachePath(cfg *config.Config, log logger.Logger, userName, boardName string) (string, error) {
	if noCache {
		return "", nil
	}
	path := cachePathFor(cfg, cacheFile, userName, boardName)
	if clearCache {
		if err := cache.NewStore(path, log).Delete(); err != nil {
			return "", err
		}
	}
	return path, nil
}

// openBoard resolves the board and loads its cached pins
func openBoard(ctx context.Context, client *pinterest.Client, log logger.Logger, userName, boardName, cachePath string) (*board.Board, error) {
	b, err := board.New(ctx, client, userName, boardName,
		board.WithCachePath(cachePath),
		board.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}
