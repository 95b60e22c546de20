// Package webdav stores pages on a Nextcloud instance through its WebDAV
// endpoint.
//
// A page lives at
//
//	{base_url}/remote.php/dav/files{storage_root}/{serialized reference}.md
//
// with the same frontmatter layout as the local store. The page version is
// the ETag reported by the server.
package webdav

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/hashicorp/go-hclog"

	"github.com/xwiki-contrib/cristal-go/pkg/auth"
	"github.com/xwiki-contrib/cristal-go/pkg/model"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
	"github.com/xwiki-contrib/cristal-go/pkg/references/nextcloud"
	"github.com/xwiki-contrib/cristal-go/pkg/storage"
)

const (
	davPath       = "/remote.php/dav/files"
	fileExtension = ".md"
	methodMkcol   = "MKCOL"
)

// ErrRemote is returned when the server rejects a request.
var ErrRemote = errors.New("webdav request failed")

// Store is a storage.Storage on a Nextcloud WebDAV endpoint.
type Store struct {
	baseURL    string
	root       string
	client     *http.Client
	auth       auth.Provider
	serializer references.Serializer
	logger     hclog.Logger
}

var _ storage.Storage = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithSerializer lays pages out with serializer instead of the Nextcloud
// path grammar.
func WithSerializer(serializer references.Serializer) Option {
	return func(s *Store) {
		s.serializer = serializer
	}
}

// New creates a store for the instance of cfg. A nil provider sends
// anonymous requests.
func New(cfg *nextcloud.Config, provider auth.Provider, logger hclog.Logger, opts ...Option) (*Store, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, errors.New("webdav store requires a base URL")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if provider == nil {
		provider = auth.NoAuth
	}

	s := &Store{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		root:       strings.Trim(cfg.StorageRoot, "/"),
		client:     cfg.NewHTTPClient(),
		auth:       provider,
		serializer: nextcloud.NewSerializer(),
		logger:     logger.Named("webdav"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetPage downloads the page of ref.
func (s *Store) GetPage(ctx context.Context, ref *model.DocumentReference) (*storage.Page, error) {
	segments, err := s.pageSegments(ref)
	if err != nil {
		return nil, err
	}

	resp, body, err := s.do(ctx, http.MethodGet, s.url(segments), nil)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", storage.ErrPageNotFound, ref)
	case !success(resp.StatusCode):
		return nil, statusError(http.MethodGet, ref, resp.StatusCode)
	}

	meta, content, err := storage.SplitFrontmatter(body)
	if err != nil {
		return nil, fmt.Errorf("error parsing page %s: %w", ref, err)
	}

	page := &storage.Page{
		Reference: ref,
		Content:   content,
		Syntax:    meta.Syntax,
		Version:   meta.Version,
	}
	if etag := etagVersion(resp.Header.Get("ETag")); etag != "" {
		page.Version = etag
	}

	lastModified := resp.Header.Get("Last-Modified")
	if lastModified == "" {
		lastModified = meta.LastModified
	}
	if lastModified != "" {
		t, err := dateparse.ParseAny(lastModified)
		if err != nil {
			s.logger.Warn("ignoring unparsable last modification date",
				"reference", ref.String(),
				"value", lastModified,
				"error", err,
			)
		} else {
			page.LastModified = t
		}
	}

	return page, nil
}

// SavePage uploads page, creating missing parent collections.
func (s *Store) SavePage(ctx context.Context, page *storage.Page) error {
	if page == nil || page.Reference == nil {
		return errors.New("page has no reference")
	}

	segments, err := s.pageSegments(page.Reference)
	if err != nil {
		return err
	}

	meta := storage.Frontmatter{Syntax: page.Syntax}
	if !page.LastModified.IsZero() {
		meta.LastModified = page.LastModified.UTC().Format(time.RFC3339)
	}
	data, err := storage.JoinFrontmatter(meta, page.Content)
	if err != nil {
		return err
	}

	resp, _, err := s.do(ctx, http.MethodPut, s.url(segments), data)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusConflict {
		if err := s.mkcolAll(ctx, segments[:len(segments)-1]); err != nil {
			return err
		}
		resp, _, err = s.do(ctx, http.MethodPut, s.url(segments), data)
		if err != nil {
			return err
		}
	}
	if !success(resp.StatusCode) {
		return statusError(http.MethodPut, page.Reference, resp.StatusCode)
	}

	s.logger.Debug("saved page", "reference", page.Reference.String())
	return nil
}

// DeletePage removes the page of ref.
func (s *Store) DeletePage(ctx context.Context, ref *model.DocumentReference) error {
	segments, err := s.pageSegments(ref)
	if err != nil {
		return err
	}

	resp, _, err := s.do(ctx, http.MethodDelete, s.url(segments), nil)
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", storage.ErrPageNotFound, ref)
	case !success(resp.StatusCode):
		return statusError(http.MethodDelete, ref, resp.StatusCode)
	}

	s.logger.Debug("deleted page", "reference", ref.String())
	return nil
}

// mkcolAll creates every collection of dirs below the storage root. A
// collection that already exists answers 405.
func (s *Store) mkcolAll(ctx context.Context, dirs []string) error {
	for i := range dirs {
		resp, _, err := s.do(ctx, methodMkcol, s.url(dirs[:i+1]), nil)
		if err != nil {
			return err
		}
		if !success(resp.StatusCode) && resp.StatusCode != http.StatusMethodNotAllowed {
			return fmt.Errorf("%w: MKCOL %s returned status %d",
				ErrRemote, strings.Join(dirs[:i+1], "/"), resp.StatusCode)
		}
	}
	return nil
}

// pageSegments returns the path segments of the page file of ref, below
// the storage root.
func (s *Store) pageSegments(ref *model.DocumentReference) ([]string, error) {
	if ref == nil {
		return nil, errors.New("nil document reference")
	}

	serialized, err := s.serializer.Serialize(ref)
	if err != nil {
		return nil, fmt.Errorf("error serializing %s: %w", ref, err)
	}

	segments := strings.Split(serialized, "/")
	for _, segment := range segments {
		if segment == "" || segment == "." || segment == ".." {
			return nil, references.MalformedReference(serialized, "not a valid page path")
		}
	}
	segments[len(segments)-1] += fileExtension
	return segments, nil
}

func (s *Store) url(segments []string) string {
	var b strings.Builder
	b.WriteString(s.baseURL)
	b.WriteString(davPath)
	if s.root != "" {
		for _, segment := range strings.Split(s.root, "/") {
			b.WriteString("/")
			b.WriteString(url.PathEscape(segment))
		}
	}
	for _, segment := range segments {
		b.WriteString("/")
		b.WriteString(url.PathEscape(segment))
	}
	return b.String()
}

// do sends an authenticated request and reads the whole response body.
func (s *Store) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "text/markdown; charset=utf-8")
	}

	authorization, err := auth.Header(ctx, s.auth)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrRemote, err)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	s.logger.Trace("sending request", "method", method, "url", endpoint)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrRemote, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read response: %w", ErrRemote, err)
	}
	return resp, data, nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}

func statusError(method string, ref *model.DocumentReference, status int) error {
	return fmt.Errorf("%w: %s %s returned status %d", ErrRemote, method, ref, status)
}

// etagVersion strips the weak marker and quotes of an ETag.
func etagVersion(etag string) string {
	etag = strings.TrimPrefix(etag, "W/")
	return strings.Trim(etag, `"`)
}
