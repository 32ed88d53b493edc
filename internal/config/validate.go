package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEndpoints(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateHandoff(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"generation.poll_interval_seconds":   c.Generation.PollIntervalSeconds,
		"generation.request_timeout_seconds": c.Generation.RequestTimeoutSeconds,
		"stitch.request_timeout_seconds":     c.Stitch.RequestTimeoutSeconds,
		"notifications.request_timeout":      c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateEndpoints() error {
	if c.Generation.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("generation.base_url is required. Edit %s (create with 'clipstudio config init')", defaultPath)
	}
	if err := validateHTTPURL("generation.base_url", c.Generation.BaseURL); err != nil {
		return err
	}
	if c.Stitch.BaseURL == "" {
		return nil
	}
	return validateHTTPURL("stitch.base_url", c.Stitch.BaseURL)
}

func (c *Config) validateLibrary() error {
	switch c.Library.Driver {
	case LibraryDriverSQLite:
		if strings.TrimSpace(c.Library.Path) == "" {
			return errors.New("library.path must be set when library.driver is sqlite")
		}
	case LibraryDriverPostgres:
		if c.Library.DSN == "" {
			return fmt.Errorf("library.dsn must be set when library.driver is postgres (or set %s)", envLibraryDSN)
		}
	default:
		return fmt.Errorf("library.driver: unsupported value %q (use sqlite or postgres)", c.Library.Driver)
	}
	return nil
}

func (c *Config) validateHandoff() error {
	switch c.Handoff.Mode {
	case HandoffModeLog:
	case HandoffModeAMQP:
		if c.Handoff.AMQPURL == "" {
			return errors.New("handoff.amqp_url must be set when handoff.mode is amqp")
		}
		if err := validateURLScheme("handoff.amqp_url", c.Handoff.AMQPURL, "amqp", "amqps"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("handoff.mode: unsupported value %q (use log or amqp)", c.Handoff.Mode)
	}
	if strings.Count(c.Handoff.ScheduleURLTemplate, "%s") != 1 {
		return errors.New("handoff.schedule_url_template must contain exactly one %s placeholder")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return errors.New("archive.bucket must be set when archive.enabled is true")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Bind == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func validateHTTPURL(key, value string) error {
	return validateURLScheme(key, value, "http", "https")
}

func validateURLScheme(key, value string, schemes ...string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	for _, scheme := range schemes {
		if strings.EqualFold(parsed.Scheme, scheme) && parsed.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be an absolute %s url, got %q", key, strings.Join(schemes, "/"), value)
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
