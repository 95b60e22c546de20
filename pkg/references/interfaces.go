// Package references defines the contracts every Cristal backend implements
// to translate between its native reference strings and the structured
// reference model, plus the registry used to look them up by backend type.
package references

import (
	"context"

	"github.com/xwiki-contrib/cristal-go/pkg/model"
)

// ParseOptions constrains a parse call.
type ParseOptions struct {
	// Type is the expected entity type. EntityTypeUnspecified lets the
	// parser infer it from the reference string.
	Type model.EntityType

	// Context is used to resolve relative references. It may be nil.
	Context *ResolutionContext
}

// ResolutionContext is the navigation state relative references are
// resolved against. It is captured by the caller when a parse starts and is
// never modified by parsers.
type ResolutionContext struct {
	// CurrentDocument is the document the user is currently viewing.
	CurrentDocument *model.DocumentReference
}

// CurrentDocument returns the current document of opts, or nil.
func (o ParseOptions) CurrentDocument() *model.DocumentReference {
	if o.Context == nil {
		return nil
	}
	return o.Context.CurrentDocument
}

// Parser converts backend native reference strings into entity references.
type Parser interface {
	// Parse resolves reference without performing any I/O.
	Parse(reference string, opts ParseOptions) (model.EntityReference, error)

	// ParseAsync resolves reference, possibly contacting the backend.
	ParseAsync(ctx context.Context, reference string, opts ParseOptions) (model.EntityReference, error)
}

// Serializer converts entity references into backend native strings.
//
// Serialize returns "" and a nil error for a nil reference.
type Serializer interface {
	Serialize(ref model.EntityReference) (string, error)
}

// Handler holds backend conventions about references that are not part of
// the string grammar.
type Handler interface {
	// CreateDocumentReference returns the reference of a new document called
	// name created under space.
	CreateDocumentReference(name string, space *model.SpaceReference) *model.DocumentReference

	// GetTitle derives a display title from a reference.
	GetTitle(ref model.EntityReference) string
}

// Backend groups the reference components of one backend.
type Backend struct {
	Parser     Parser
	Serializer Serializer
	Handler    Handler
}
