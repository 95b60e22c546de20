// Package backends builds reference components from configuration.
package backends

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/xwiki-contrib/cristal-go/internal/config"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
	"github.com/xwiki-contrib/cristal-go/pkg/references/nextcloud"
	"github.com/xwiki-contrib/cristal-go/pkg/references/xwiki"
	"github.com/xwiki-contrib/cristal-go/pkg/storage"
	"github.com/xwiki-contrib/cristal-go/pkg/storage/webdav"
)

// New builds the reference components of a configured backend.
func New(b *config.Backend, logger hclog.Logger) (references.Backend, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	switch b.BackendType() {
	case references.BackendTypeXWiki:
		return xwiki.NewBackend(), nil
	case references.BackendTypeNextcloud:
		cfg := b.NextcloudConfig()
		if err := cfg.Validate(); err != nil {
			return references.Backend{}, fmt.Errorf("backend %q: %w", b.Name, err)
		}
		return nextcloud.NewBackend(cfg, b.AuthProvider(), logger.With("backend", b.Name)), nil
	default:
		return references.Backend{}, fmt.Errorf("%w: backend %q of type %s has no reference implementation",
			references.ErrUnsupported, b.Name, b.Type)
	}
}

// NewRegistry registers a backend per implemented type. The first block of
// each type in cfg is used; types without a block get components with no
// network access. Blocks of a type without a reference implementation are
// skipped. cfg may be nil.
func NewRegistry(cfg *config.Config, logger hclog.Logger) (*references.Registry, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	selected := map[references.BackendType]references.Backend{
		references.BackendTypeXWiki:     xwiki.NewBackend(),
		references.BackendTypeNextcloud: nextcloud.NewBackend(nil, nil, logger),
	}

	if cfg != nil {
		configured := make(map[references.BackendType]string)
		for _, b := range cfg.Backends {
			if name, ok := configured[b.BackendType()]; ok {
				logger.Debug("skipping backend, type already configured",
					"backend", b.Name,
					"type", b.Type,
					"used", name,
				)
				continue
			}

			backend, err := New(b, logger)
			if errors.Is(err, references.ErrUnsupported) {
				logger.Warn("skipping backend without reference implementation",
					"backend", b.Name,
					"type", b.Type,
				)
				continue
			}
			if err != nil {
				return nil, err
			}
			selected[b.BackendType()] = backend
			configured[b.BackendType()] = b.Name
		}
	}

	registry := references.NewRegistry(logger)
	for _, t := range references.ValidBackendTypes() {
		backend, ok := selected[t]
		if !ok {
			continue
		}
		if err := registry.Register(t, backend); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// NewStorage builds the network page storage of a configured backend. Pages
// are laid out with serializer. Only Nextcloud blocks with a base URL have
// one; other blocks return ErrUnsupported.
func NewStorage(b *config.Backend, serializer references.Serializer, logger hclog.Logger) (storage.Storage, error) {
	if b.BackendType() != references.BackendTypeNextcloud || b.BaseURL == "" {
		return nil, fmt.Errorf("%w: backend %q has no network page storage",
			references.ErrUnsupported, b.Name)
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	var opts []webdav.Option
	if serializer != nil {
		opts = append(opts, webdav.WithSerializer(serializer))
	}

	store, err := webdav.New(b.NextcloudConfig(), b.AuthProvider(), logger.With("backend", b.Name), opts...)
	if err != nil {
		return nil, fmt.Errorf("backend %q: %w", b.Name, err)
	}
	return store, nil
}
