// Package config loads the HCL configuration of the cristal-ref tool.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/xwiki-contrib/cristal-go/pkg/auth"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
	"github.com/xwiki-contrib/cristal-go/pkg/references/nextcloud"
)

const (
	defaultLogLevel = "info"
	defaultTimeout  = "30s"
)

// Config contains the configuration of the reference tooling.
type Config struct {
	// LogLevel is the hclog level name. Default: "info".
	LogLevel string `hcl:"log_level,optional"`

	// Backends are the configured backend instances, keyed by label.
	Backends []*Backend `hcl:"backend,block"`

	// Offline configures the local page cache.
	Offline *Offline `hcl:"offline,block"`
}

// Backend is a configured backend instance.
type Backend struct {
	Name        string `hcl:"name,label"`
	Type        string `hcl:"type"`
	BaseURL     string `hcl:"base_url,optional"`
	StorageRoot string `hcl:"storage_root,optional"`
	Username    string `hcl:"username,optional"`
	Password    string `hcl:"password,optional"`
	Token       string `hcl:"token,optional"`
	Timeout     string `hcl:"timeout,optional"`
	TLSVerify   *bool  `hcl:"tls_verify,optional"`
}

// Offline configures the local page cache.
type Offline struct {
	Root string `hcl:"root"`
}

// LoadFile loads, defaults and validates the configuration file at path.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	return finish(&cfg)
}

// Decode parses HCL source. filename is used in diagnostics and must end
// in ".hcl".
func Decode(filename string, src []byte) (*Config, error) {
	var cfg Config
	if err := hclsimple.Decode(filename, src, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	for _, b := range c.Backends {
		if t, err := references.ParseBackendType(b.Type); err == nil {
			b.Type = string(t)
		}
		if b.Timeout == "" {
			b.Timeout = defaultTimeout
		}
	}
}

// Validate checks the whole configuration and reports every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result,
			fmt.Errorf("invalid log_level: %q", c.LogLevel))
	}

	seen := make(map[string]bool, len(c.Backends))
	for _, b := range c.Backends {
		if seen[b.Name] {
			result = multierror.Append(result,
				fmt.Errorf("duplicate backend %q", b.Name))
			continue
		}
		seen[b.Name] = true

		if err := b.Validate(); err != nil {
			result = multierror.Append(result,
				fmt.Errorf("backend %q: %w", b.Name, err))
		}
	}

	if c.Offline != nil {
		if err := validation.ValidateStruct(c.Offline,
			validation.Field(&c.Offline.Root, validation.Required),
		); err != nil {
			result = multierror.Append(result, fmt.Errorf("offline: %w", err))
		}
	}

	return result.ErrorOrNil()
}

// Validate checks a single backend block.
func (b *Backend) Validate() error {
	return validation.ValidateStruct(b,
		validation.Field(&b.Name, validation.Required),
		validation.Field(&b.Type, validation.Required, validation.By(backendType)),
		validation.Field(&b.BaseURL, validation.By(httpURL)),
		validation.Field(&b.Timeout, validation.By(duration)),
		validation.Field(&b.Token,
			validation.When(b.Username != "",
				validation.Empty.Error("cannot be combined with username"))),
	)
}

func httpURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https scheme")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

func backendType(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := references.ParseBackendType(s)
	return err
}

func duration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// Backend returns the backend block labelled name.
func (c *Config) Backend(name string) (*Backend, bool) {
	for _, b := range c.Backends {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// Level returns the configured log level.
func (c *Config) Level() hclog.Level {
	return hclog.LevelFromString(c.LogLevel)
}

// BackendType returns the type of the backend. The type name is matched
// ignoring case.
func (b *Backend) BackendType() references.BackendType {
	if t, err := references.ParseBackendType(b.Type); err == nil {
		return t
	}
	return references.BackendType(b.Type)
}

// TimeoutDuration returns the request timeout of the backend.
func (b *Backend) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(b.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(defaultTimeout)
	}
	return d
}

// NextcloudConfig converts the block into a Nextcloud backend configuration.
func (b *Backend) NextcloudConfig() *nextcloud.Config {
	cfg := nextcloud.DefaultConfig()
	cfg.BaseURL = b.BaseURL
	cfg.StorageRoot = b.StorageRoot
	cfg.Timeout = b.TimeoutDuration()
	if b.TLSVerify != nil {
		cfg.TLSVerify = b.TLSVerify
	}
	return cfg
}

// AuthProvider returns the credentials of the backend. A token takes the
// form of a bearer token; a username is sent as basic authentication.
func (b *Backend) AuthProvider() auth.Provider {
	switch {
	case b.Token != "":
		return auth.StaticProvider{Manager: auth.NewStaticTokenManager(b.Token)}
	case b.Username != "":
		return auth.StaticProvider{Manager: auth.BasicManager{
			Username: b.Username,
			Password: b.Password,
		}}
	default:
		return auth.NoAuth
	}
}
