package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avelter/qrscan/internal/webclient"
)

// Config is the runtime configuration for the scan service.
type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string `yaml:"listen_addr"`

	// StorageRoot is where uploads and the history database live.
	StorageRoot string `yaml:"storage_root"`

	// MaxUploadMB caps the size of an uploaded document.
	MaxUploadMB int64 `yaml:"max_upload_mb"`

	// UploadRetentionHours is how long finished uploads are kept on disk
	// before the sweeper removes them.
	UploadRetentionHours int `yaml:"upload_retention_hours"`

	// GoogleAPIKey enables the AI extraction collaborator when set.
	GoogleAPIKey string `yaml:"google_api_key"`

	// WebClient selects the URL validation backend ("nethttp" or "chromedp").
	WebClient string `yaml:"web_client"`

	// RequestTimeoutSec bounds each outbound validation request.
	RequestTimeoutSec int `yaml:"request_timeout_sec"`

	// DemoAddr is the listen address for the built-in demo landing page.
	DemoAddr string `yaml:"demo_addr"`
}

func DefaultConfig() *Config {
	return &Config{
		ListenAddr:           ":8080",
		StorageRoot:          "~/.local/share/qrscan",
		MaxUploadMB:          50,
		UploadRetentionHours: 24,
		WebClient:            string(webclient.ClientNetHTTP),
		RequestTimeoutSec:    30,
		DemoAddr:             ":8090",
	}
}

// LoadConfig reads a YAML config file over the defaults, then applies
// environment overrides. A missing file is not an error; environment-only
// setups are common.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("QRSCAN_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("QRSCAN_STORAGE_ROOT"); v != "" {
		c.StorageRoot = v
	}
	if v := os.Getenv("QRSCAN_WEB_CLIENT"); v != "" {
		c.WebClient = v
	}
	if v := os.Getenv("QRSCAN_MAX_UPLOAD_MB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.MaxUploadMB = n
		}
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.GoogleAPIKey = v
	}
}

// WebClientConfig translates the flat config fields into the webclient's own
// config struct.
func (c *Config) WebClientConfig() webclient.Config {
	wc := webclient.DefaultConfig()
	if c.WebClient != "" {
		wc.Client = webclient.Client(c.WebClient)
	}
	if c.RequestTimeoutSec > 0 {
		wc.Timeout = time.Duration(c.RequestTimeoutSec) * time.Second
	}
	return wc
}

// UploadRetention returns the retention window as a duration.
func (c *Config) UploadRetention() time.Duration {
	hours := c.UploadRetentionHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}
