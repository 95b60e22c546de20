// Package docservice tracks the document the user is currently viewing.
package docservice

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/xwiki-contrib/cristal-go/pkg/model"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

// DocumentService exposes the current navigation state.
type DocumentService interface {
	// CurrentDocumentReference returns the current document, or nil when no
	// document is open.
	CurrentDocumentReference() *model.DocumentReference
}

// Service is an in-memory DocumentService safe for concurrent use.
type Service struct {
	mu      sync.RWMutex
	current *model.DocumentReference
	logger  hclog.Logger
}

var _ DocumentService = (*Service)(nil)

// New creates a Service with no current document.
func New(logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{logger: logger.Named("document-service")}
}

// CurrentDocumentReference returns the current document, or nil.
func (s *Service) CurrentDocumentReference() *model.DocumentReference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrentDocumentReference records ref as the current document. A nil
// ref closes the current document.
func (s *Service) SetCurrentDocumentReference(ref *model.DocumentReference) {
	s.mu.Lock()
	s.current = ref
	s.mu.Unlock()

	if ref == nil {
		s.logger.Debug("current document cleared")
		return
	}
	s.logger.Debug("current document changed", "document", ref.String())
}

// ResolutionContext captures the current document of svc. Parsers receive
// the returned value, so later navigation does not affect a parse already
// in progress. A nil svc yields an empty context.
func ResolutionContext(svc DocumentService) *references.ResolutionContext {
	if svc == nil {
		return &references.ResolutionContext{}
	}
	return &references.ResolutionContext{
		CurrentDocument: svc.CurrentDocumentReference(),
	}
}
