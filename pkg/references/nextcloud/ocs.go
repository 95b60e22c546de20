package nextcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/mapstructure"

	"github.com/xwiki-contrib/cristal-go/pkg/auth"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

const resolvePath = "/ocs/v2.php/references/resolve"

// FileResolver turns a Nextcloud file URL into the path of the file.
type FileResolver interface {
	ResolvePath(ctx context.Context, fileURL string) (string, error)
}

// OCSClient resolves file URLs through the OCS reference resolution
// endpoint. It neither caches nor retries.
type OCSClient struct {
	config *Config
	client *http.Client
	auth   auth.Provider
	logger hclog.Logger
}

var _ FileResolver = (*OCSClient)(nil)

// ocsEnvelope is the part of the OCS response the resolver reads. Entries of
// References are decoded separately because their shape depends on the
// reference provider that answered.
type ocsEnvelope struct {
	OCS struct {
		Data struct {
			References map[string]any `json:"references"`
		} `json:"data"`
	} `json:"ocs"`
}

// resolvedReference is a single entry of ocs.data.references.
type resolvedReference struct {
	RichObject struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"richObject"`
}

// NewOCSClient creates an OCS client. A nil provider sends anonymous
// requests.
func NewOCSClient(cfg *Config, provider auth.Provider, logger hclog.Logger) *OCSClient {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if provider == nil {
		provider = auth.NoAuth
	}

	return &OCSClient{
		config: cfg,
		client: cfg.NewHTTPClient(),
		auth:   provider,
		logger: logger.Named("ocs"),
	}
}

// ResolvePath returns richObject.path of fileURL as reported by the server.
func (c *OCSClient) ResolvePath(ctx context.Context, fileURL string) (string, error) {
	endpoint := c.buildURL(fileURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("OCS-APIRequest", "true")

	authorization, err := auth.Header(ctx, c.auth)
	if err != nil {
		return "", fmt.Errorf("%w: %w", references.ErrRemote, err)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	c.logger.Debug("resolving file reference", "reference", fileURL)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", references.ErrRemote, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %w", references.ErrRemote, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: OCS returned status %d for %q: %s",
			references.ErrRemote, resp.StatusCode, fileURL, string(body))
	}

	return decodeResolvedPath(body, fileURL)
}

// buildURL constructs the resolve endpoint URL for fileURL.
func (c *OCSClient) buildURL(fileURL string) string {
	q := url.Values{}
	q.Set("reference", fileURL)
	return c.config.baseURL() + resolvePath + "?" + q.Encode()
}

func decodeResolvedPath(body []byte, fileURL string) (string, error) {
	var envelope ocsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("%w: %w", references.ErrMalformedResponse, err)
	}

	entry, ok := envelope.OCS.Data.References[fileURL]
	if !ok || entry == nil {
		return "", fmt.Errorf("%w: no resolved reference for %q",
			references.ErrMalformedResponse, fileURL)
	}

	var resolved resolvedReference
	if err := mapstructure.Decode(entry, &resolved); err != nil {
		return "", fmt.Errorf("%w: reference %q: %w",
			references.ErrMalformedResponse, fileURL, err)
	}

	if resolved.RichObject.Path == "" {
		return "", fmt.Errorf("%w: reference %q has no richObject.path",
			references.ErrMalformedResponse, fileURL)
	}

	return resolved.RichObject.Path, nil
}
