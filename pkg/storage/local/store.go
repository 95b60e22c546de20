// Package local stores pages as markdown files with YAML frontmatter.
//
// A page is written to the path its reference serializes to, plus ".md":
//
//	---
//	syntax: markdown/1.2
//	version: "3"
//	last_modified: 2025-01-02T15:04:05Z
//	---
//	# Page content
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/xwiki-contrib/cristal-go/pkg/model"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
	"github.com/xwiki-contrib/cristal-go/pkg/references/nextcloud"
	"github.com/xwiki-contrib/cristal-go/pkg/storage"
)

const fileExtension = ".md"

// Store is a storage.Storage on an afero filesystem.
type Store struct {
	fs         afero.Fs
	root       string
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

// New creates a store rooted at root on filesystem fs.
func New(filesystem afero.Fs, root string, logger hclog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	s := &Store{
		fs:         filesystem,
		root:       filepath.Clean(root),
		serializer: nextcloud.NewSerializer(),
		logger:     logger.Named("local-storage"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOS creates a store on the operating system filesystem.
func NewOS(root string, logger hclog.Logger, opts ...Option) *Store {
	return New(afero.NewOsFs(), root, logger, opts...)
}

// GetPage reads the page of ref.
func (s *Store) GetPage(_ context.Context, ref *model.DocumentReference) (*storage.Page, error) {
	path, err := s.pagePath(ref)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrPageNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading page file %q: %w", path, err)
	}

	meta, content, err := storage.SplitFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing page file %q: %w", path, err)
	}

	page := &storage.Page{
		Reference: ref,
		Content:   content,
		Syntax:    meta.Syntax,
		Version:   meta.Version,
	}

	if meta.LastModified != "" {
		lastModified, err := dateparse.ParseAny(meta.LastModified)
		if err != nil {
			s.logger.Warn("ignoring unparsable last_modified",
				"path", path,
				"value", meta.LastModified,
				"error", err,
			)
		} else {
			page.LastModified = lastModified
		}
	}

	return page, nil
}

// SavePage writes page, creating parent folders as needed.
func (s *Store) SavePage(_ context.Context, page *storage.Page) error {
	if page == nil || page.Reference == nil {
		return errors.New("page has no reference")
	}

	path, err := s.pagePath(page.Reference)
	if err != nil {
		return err
	}

	meta := storage.Frontmatter{
		Syntax:  page.Syntax,
		Version: page.Version,
	}
	if !page.LastModified.IsZero() {
		meta.LastModified = page.LastModified.UTC().Format(time.RFC3339)
	}

	data, err := storage.JoinFrontmatter(meta, page.Content)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating folder of %q: %w", path, err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("error writing page file %q: %w", path, err)
	}

	s.logger.Debug("saved page", "path", path, "version", page.Version)
	return nil
}

// DeletePage removes the page file of ref.
func (s *Store) DeletePage(_ context.Context, ref *model.DocumentReference) error {
	path, err := s.pagePath(ref)
	if err != nil {
		return err
	}

	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return fmt.Errorf("error checking page file %q: %w", path, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrPageNotFound, ref)
	}

	if err := s.fs.Remove(path); err != nil {
		return fmt.Errorf("error deleting page file %q: %w", path, err)
	}

	s.logger.Debug("deleted page", "path", path)
	return nil
}

// pagePath returns the file path of ref. Paths resolving outside of the
// root are rejected.
func (s *Store) pagePath(ref *model.DocumentReference) (string, error) {
	if ref == nil {
		return "", errors.New("nil document reference")
	}

	serialized, err := s.serializer.Serialize(ref)
	if err != nil {
		return "", fmt.Errorf("error serializing %s: %w", ref, err)
	}

	path := filepath.Join(s.root, filepath.FromSlash(serialized)+fileExtension)
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", references.MalformedReference(serialized, "resolves outside of the storage root")
	}
	return path, nil
}
