package references

import (
	"errors"
	"fmt"

	"github.com/xwiki-contrib/cristal-go/pkg/model"
)

// Standard errors returned by parsers, serializers and the registry.
var (
	// ErrMalformedReference means the input matches no grammar the backend
	// understands.
	ErrMalformedReference = errors.New("not a valid entity reference")

	// ErrUnknownType means a reference implementation outside the closed
	// set reached a serializer. It indicates a programming error.
	ErrUnknownType = errors.New("unknown reference type")

	// ErrUnsupported means the backend has no way to express the reference.
	ErrUnsupported = errors.New("unsupported reference")

	// ErrNoCurrentDocument means a relative reference was parsed without a
	// current document to resolve it against.
	ErrNoCurrentDocument = errors.New("no current document to resolve relative reference")

	// ErrRemote means the backend could not be reached or answered with an
	// error status.
	ErrRemote = errors.New("remote request failed")

	// ErrMalformedResponse means the backend answered with a body that does
	// not have the expected shape.
	ErrMalformedResponse = errors.New("malformed remote response")

	// ErrBackendNotRegistered means no components are registered for a
	// backend type.
	ErrBackendNotRegistered = errors.New("backend not registered")
)

// MalformedReference returns an ErrMalformedReference naming the input.
func MalformedReference(reference string, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: %q", ErrMalformedReference, reference)
	}
	return fmt.Errorf("%w: %q: %s", ErrMalformedReference, reference, reason)
}

// UnknownType returns an ErrUnknownType describing ref.
func UnknownType(ref model.EntityReference) error {
	return fmt.Errorf("%w [%T %v]", ErrUnknownType, ref, ref.Type())
}
