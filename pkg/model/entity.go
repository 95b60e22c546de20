package model

import (
	"fmt"
	"strings"
)

// EntityType identifies the kind of entity a reference points to.
type EntityType uint8

const (
	// EntityTypeUnspecified is the zero value. It is used by callers that do
	// not constrain the expected type and is never carried by a reference.
	EntityTypeUnspecified EntityType = iota

	// EntityTypeWiki identifies a whole wiki.
	EntityTypeWiki

	// EntityTypeSpace identifies a (possibly nested) space.
	EntityTypeSpace

	// EntityTypeDocument identifies a document (page).
	EntityTypeDocument

	// EntityTypeAttachment identifies a file attached to a document.
	EntityTypeAttachment
)

// EntityTypes returns all concrete entity types, root first.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityTypeWiki,
		EntityTypeSpace,
		EntityTypeDocument,
		EntityTypeAttachment,
	}
}

// IsValid returns true for the four concrete entity types.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeWiki, EntityTypeSpace, EntityTypeDocument, EntityTypeAttachment:
		return true
	default:
		return false
	}
}

// String returns the upper-case name of the entity type.
func (t EntityType) String() string {
	switch t {
	case EntityTypeUnspecified:
		return "UNSPECIFIED"
	case EntityTypeWiki:
		return "WIKI"
	case EntityTypeSpace:
		return "SPACE"
	case EntityTypeDocument:
		return "DOCUMENT"
	case EntityTypeAttachment:
		return "ATTACHMENT"
	default:
		return fmt.Sprintf("EntityType(%d)", uint8(t))
	}
}

// ParseEntityType parses an entity type name, ignoring case.
// The empty string parses to EntityTypeUnspecified.
func ParseEntityType(s string) (EntityType, error) {
	if s == "" {
		return EntityTypeUnspecified, nil
	}
	for _, t := range EntityTypes() {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return EntityTypeUnspecified, fmt.Errorf(
		"invalid entity type: %s (valid: %v)", s, EntityTypes())
}

// EntityReference is a structured pointer to a wiki entity.
//
// The interface is sealed: the only implementations are *WikiReference,
// *SpaceReference, *DocumentReference and *AttachmentReference.
type EntityReference interface {
	// Type returns the entity type tag of the reference.
	Type() EntityType

	// Parent returns the next reference up the chain, or nil at the root.
	Parent() EntityReference

	// String returns a human readable, backend neutral representation.
	String() string

	entityReference()
}
