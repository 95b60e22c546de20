package references

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// BackendType identifies a storage backend and therefore its addressing
// grammar.
type BackendType string

const (
	// BackendTypeXWiki identifies an XWiki instance reached over its REST API.
	BackendTypeXWiki BackendType = "XWiki"

	// BackendTypeNextcloud identifies a Nextcloud instance (WebDAV + OCS).
	BackendTypeNextcloud BackendType = "Nextcloud"

	// BackendTypeGitHub identifies a GitHub repository.
	BackendTypeGitHub BackendType = "GitHub"

	// BackendTypeFileSystem identifies a local directory.
	BackendTypeFileSystem BackendType = "FileSystem"
)

// ValidBackendTypes returns all known backend types.
func ValidBackendTypes() []BackendType {
	return []BackendType{
		BackendTypeXWiki,
		BackendTypeNextcloud,
		BackendTypeGitHub,
		BackendTypeFileSystem,
	}
}

// IsValid returns true if this is a recognized backend type.
func (bt BackendType) IsValid() bool {
	switch bt {
	case BackendTypeXWiki, BackendTypeNextcloud, BackendTypeGitHub, BackendTypeFileSystem:
		return true
	default:
		return false
	}
}

// ParseBackendType returns the backend type named s, ignoring case.
func ParseBackendType(s string) (BackendType, error) {
	for _, bt := range ValidBackendTypes() {
		if strings.EqualFold(s, string(bt)) {
			return bt, nil
		}
	}
	return "", fmt.Errorf("invalid backend type: %s (valid: %v)", s, ValidBackendTypes())
}

// String returns the string representation of the backend type.
func (bt BackendType) String() string {
	return string(bt)
}

// Registry maps backend types to their reference components. It is the
// lookup point UI and storage code use to find the parser, serializer and
// handler of the active backend.
type Registry struct {
	backends map[BackendType]Backend
	mu       sync.RWMutex
	logger   hclog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger hclog.Logger) *Registry {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Registry{
		backends: make(map[BackendType]Backend),
		logger:   logger.Named("reference-registry"),
	}
}

// Register registers the reference components of a backend.
func (r *Registry) Register(backendType BackendType, backend Backend) error {
	if !backendType.IsValid() {
		return fmt.Errorf("invalid backend type: %s (valid: %v)",
			backendType, ValidBackendTypes())
	}
	if backend.Parser == nil || backend.Serializer == nil || backend.Handler == nil {
		return fmt.Errorf("backend %s must provide a parser, a serializer and a handler", backendType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[backendType]; exists {
		return fmt.Errorf("backend %s already registered", backendType)
	}

	r.backends[backendType] = backend

	r.logger.Info("backend registered",
		"type", backendType,
		"parser", fmt.Sprintf("%T", backend.Parser),
		"serializer", fmt.Sprintf("%T", backend.Serializer))

	return nil
}

// Backend returns all components registered for backendType.
func (r *Registry) Backend(backendType BackendType) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, exists := r.backends[backendType]
	if !exists {
		return Backend{}, fmt.Errorf("%w: %s", ErrBackendNotRegistered, backendType)
	}
	return backend, nil
}

// Parser returns the parser registered for backendType.
func (r *Registry) Parser(backendType BackendType) (Parser, error) {
	backend, err := r.Backend(backendType)
	if err != nil {
		return nil, err
	}
	return backend.Parser, nil
}

// Serializer returns the serializer registered for backendType.
func (r *Registry) Serializer(backendType BackendType) (Serializer, error) {
	backend, err := r.Backend(backendType)
	if err != nil {
		return nil, err
	}
	return backend.Serializer, nil
}

// Handler returns the handler registered for backendType.
func (r *Registry) Handler(backendType BackendType) (Handler, error) {
	backend, err := r.Backend(backendType)
	if err != nil {
		return nil, err
	}
	return backend.Handler, nil
}

// Types returns the registered backend types, sorted.
func (r *Registry) Types() []BackendType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]BackendType, 0, len(r.backends))
	for t := range r.backends {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
