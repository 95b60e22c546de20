package model

import (
	"maps"
	"slices"
)

// Equal reports whether two references are structurally equal, including
// the terminal flag of documents and the backend metadata of attachments.
// Two nil references are equal.
func Equal(a, b EntityReference) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}

	switch x := a.(type) {
	case *WikiReference:
		y, ok := b.(*WikiReference)
		return ok && wikiEqual(x, y)
	case *SpaceReference:
		y, ok := b.(*SpaceReference)
		return ok && spaceEqual(x, y)
	case *DocumentReference:
		y, ok := b.(*DocumentReference)
		return ok && documentEqual(x, y)
	case *AttachmentReference:
		y, ok := b.(*AttachmentReference)
		return ok && attachmentEqual(x, y)
	default:
		return false
	}
}

// Equal reports whether both wiki references are equal.
func (w *WikiReference) Equal(other *WikiReference) bool {
	return wikiEqual(w, other)
}

// Equal reports whether both space references are equal.
func (s *SpaceReference) Equal(other *SpaceReference) bool {
	return spaceEqual(s, other)
}

// Equal reports whether both document references are equal.
func (d *DocumentReference) Equal(other *DocumentReference) bool {
	return documentEqual(d, other)
}

// Equal reports whether both attachment references are equal.
func (a *AttachmentReference) Equal(other *AttachmentReference) bool {
	return attachmentEqual(a, other)
}

func wikiEqual(a, b *WikiReference) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.name == b.name
}

func spaceEqual(a, b *SpaceReference) bool {
	if a == nil || b == nil {
		return a == b
	}
	return wikiEqual(a.wiki, b.wiki) && slices.Equal(a.names, b.names)
}

func documentEqual(a, b *DocumentReference) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.name == b.name &&
		a.terminal == b.terminal &&
		spaceEqual(a.space, b.space)
}

func attachmentEqual(a, b *AttachmentReference) bool {
	if a == nil || b == nil {
		return a == b
	}
	// maps.Equal treats nil and empty maps as equal.
	return a.name == b.name &&
		documentEqual(a.document, b.document) &&
		maps.Equal(a.metadata, b.metadata)
}

// IsNil reports whether ref is nil or a typed nil reference pointer.
func IsNil(ref EntityReference) bool {
	switch v := ref.(type) {
	case nil:
		return true
	case *WikiReference:
		return v == nil
	case *SpaceReference:
		return v == nil
	case *DocumentReference:
		return v == nil
	case *AttachmentReference:
		return v == nil
	default:
		return false
	}
}

// Extract walks up the parent chain of ref, starting with ref itself, and
// returns the first reference of the requested type. It returns nil when the
// chain holds no such reference.
func Extract(ref EntityReference, t EntityType) EntityReference {
	for r := ref; !IsNil(r); r = r.Parent() {
		if r.Type() == t {
			return r
		}
	}
	return nil
}
