package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGeneration()
	c.normalizeStitch()
	if err := c.normalizeLibrary(); err != nil {
		return err
	}
	c.normalizeHandoff()
	c.normalizeArchive()
	c.normalizeNotifications()
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	c.API.Token = strings.TrimSpace(c.API.Token)
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGeneration() {
	c.Generation.BaseURL = strings.TrimRight(strings.TrimSpace(c.Generation.BaseURL), "/")
	c.Generation.APIToken = strings.TrimSpace(c.Generation.APIToken)
	if c.Generation.APIToken == "" {
		if value, ok := os.LookupEnv(envGenerationToken); ok {
			c.Generation.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Generation.PollIntervalSeconds == 0 {
		c.Generation.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Generation.RequestTimeoutSeconds == 0 {
		c.Generation.RequestTimeoutSeconds = defaultGenerationTimeoutSeconds
	}
}

// The original deployment serves generation and stitching from one API
// server, so an unset stitch endpoint and token inherit the generation ones.
func (c *Config) normalizeStitch() {
	c.Stitch.BaseURL = strings.TrimRight(strings.TrimSpace(c.Stitch.BaseURL), "/")
	if c.Stitch.BaseURL == "" {
		c.Stitch.BaseURL = c.Generation.BaseURL
	}
	c.Stitch.APIToken = strings.TrimSpace(c.Stitch.APIToken)
	if c.Stitch.APIToken == "" {
		if value, ok := os.LookupEnv(envStitchToken); ok {
			c.Stitch.APIToken = strings.TrimSpace(value)
		} else {
			c.Stitch.APIToken = c.Generation.APIToken
		}
	}
	if c.Stitch.RequestTimeoutSeconds == 0 {
		c.Stitch.RequestTimeoutSeconds = defaultStitchTimeoutSeconds
	}
}

func (c *Config) normalizeLibrary() error {
	c.Library.Driver = strings.ToLower(strings.TrimSpace(c.Library.Driver))
	switch c.Library.Driver {
	case "", "sqlite3":
		c.Library.Driver = LibraryDriverSQLite
	case "postgresql", "pq":
		c.Library.Driver = LibraryDriverPostgres
	}
	c.Library.DSN = strings.TrimSpace(c.Library.DSN)
	if c.Library.DSN == "" {
		if value, ok := os.LookupEnv(envLibraryDSN); ok {
			c.Library.DSN = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Library.Path) == "" {
		c.Library.Path = filepath.Join(c.Paths.StateDir, defaultLibraryFile)
	}
	var err error
	if c.Library.Path, err = expandPath(c.Library.Path); err != nil {
		return fmt.Errorf("library.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeHandoff() {
	c.Handoff.Mode = strings.ToLower(strings.TrimSpace(c.Handoff.Mode))
	if c.Handoff.Mode == "" {
		c.Handoff.Mode = HandoffModeLog
	}
	c.Handoff.AMQPURL = strings.TrimSpace(c.Handoff.AMQPURL)
	c.Handoff.Exchange = strings.TrimSpace(c.Handoff.Exchange)
	if c.Handoff.Exchange == "" {
		c.Handoff.Exchange = defaultHandoffExchange
	}
	c.Handoff.RoutingKey = strings.TrimSpace(c.Handoff.RoutingKey)
	if c.Handoff.RoutingKey == "" {
		c.Handoff.RoutingKey = defaultHandoffRoutingKey
	}
	c.Handoff.ScheduleURLTemplate = strings.TrimSpace(c.Handoff.ScheduleURLTemplate)
	if c.Handoff.ScheduleURLTemplate == "" {
		c.Handoff.ScheduleURLTemplate = defaultScheduleURLTemplate
	}
}

func (c *Config) normalizeArchive() {
	c.Archive.Bucket = strings.TrimSpace(c.Archive.Bucket)
	c.Archive.Prefix = strings.Trim(strings.TrimSpace(c.Archive.Prefix), "/")
	c.Archive.Region = strings.TrimSpace(c.Archive.Region)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
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
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
