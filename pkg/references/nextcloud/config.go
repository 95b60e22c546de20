package nextcloud

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config contains configuration for the Nextcloud reference backend.
type Config struct {
	// BaseURL is the base URL of the Nextcloud instance.
	// Example: "https://cloud.example.com"
	BaseURL string `json:"baseUrl"`

	// StorageRoot is the path prefix, as reported by the OCS reference
	// resolver, under which Cristal stores its pages.
	// Example: "/alice/.cristal"
	StorageRoot string `json:"storageRoot,omitempty"`

	// TLSVerify controls TLS certificate verification.
	// Set to false only for development with self-signed certificates.
	TLSVerify *bool `json:"tlsVerify,omitempty"`

	// Timeout for OCS requests.
	// Default: 30 seconds
	Timeout time.Duration `json:"timeout,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	tlsVerify := true
	return &Config{
		TLSVerify: &tlsVerify,
		Timeout:   30 * time.Second,
	}
}

// Validate checks if the configuration is valid. An empty BaseURL is
// allowed: absolute URLs are then always rejected and no request is made.
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		parsedURL, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}

		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("base_url must use http or https scheme, got: %s", parsedURL.Scheme)
		}
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got: %v", c.Timeout)
	}

	return nil
}

// baseURL returns BaseURL without its trailing slash.
func (c *Config) baseURL() string {
	return strings.TrimSuffix(c.BaseURL, "/")
}

// storageRoot returns StorageRoot without its trailing slash.
func (c *Config) storageRoot() string {
	return strings.TrimSuffix(c.StorageRoot, "/")
}

// NewHTTPClient creates a configured HTTP client for OCS requests.
func (c *Config) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if c.TLSVerify != nil && !*c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
