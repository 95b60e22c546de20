package model

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Compile-time checks that the four reference kinds implement EntityReference.
var (
	_ EntityReference = (*WikiReference)(nil)
	_ EntityReference = (*SpaceReference)(nil)
	_ EntityReference = (*DocumentReference)(nil)
	_ EntityReference = (*AttachmentReference)(nil)
)

// WikiReference is the root of the addressing hierarchy.
type WikiReference struct {
	name string
}

// NewWikiReference creates a reference to the wiki with the given name.
func NewWikiReference(name string) *WikiReference {
	return &WikiReference{name: name}
}

// Name returns the wiki name.
func (w *WikiReference) Name() string {
	return w.name
}

// Type returns EntityTypeWiki.
func (w *WikiReference) Type() EntityType {
	return EntityTypeWiki
}

// Parent returns nil; a wiki has no parent.
func (w *WikiReference) Parent() EntityReference {
	return nil
}

func (w *WikiReference) String() string {
	return render(w)
}

func (w *WikiReference) entityReference() {}

// SpaceReference is a (possibly nested) space, optionally qualified by a wiki.
type SpaceReference struct {
	wiki  *WikiReference
	names []string
}

// NewSpaceReference creates a space reference. names are ordered from the
// outermost to the innermost space. A nil wiki makes the reference relative.
func NewSpaceReference(wiki *WikiReference, names ...string) *SpaceReference {
	return &SpaceReference{
		wiki:  wiki,
		names: slices.Clone(names),
	}
}

// Wiki returns the owning wiki, or nil for an unqualified space.
func (s *SpaceReference) Wiki() *WikiReference {
	return s.wiki
}

// Names returns a copy of the space segments, outermost first.
func (s *SpaceReference) Names() []string {
	return slices.Clone(s.names)
}

// Name returns the innermost space segment, or "" for an empty space.
func (s *SpaceReference) Name() string {
	if len(s.names) == 0 {
		return ""
	}
	return s.names[len(s.names)-1]
}

// Type returns EntityTypeSpace.
func (s *SpaceReference) Type() EntityType {
	return EntityTypeSpace
}

// Parent returns the wiki, or nil when the space is unqualified.
func (s *SpaceReference) Parent() EntityReference {
	if s.wiki == nil {
		return nil
	}
	return s.wiki
}

func (s *SpaceReference) String() string {
	return render(s)
}

func (s *SpaceReference) entityReference() {}

// DocumentReference is a document living in an optional space.
type DocumentReference struct {
	name     string
	space    *SpaceReference
	terminal bool
}

// NewDocumentReference creates a non-terminal document reference.
func NewDocumentReference(name string, space *SpaceReference) *DocumentReference {
	return &DocumentReference{name: name, space: space}
}

// Name returns the document name.
func (d *DocumentReference) Name() string {
	return d.name
}

// Space returns the containing space, or nil.
func (d *DocumentReference) Space() *SpaceReference {
	return d.space
}

// Terminal reports whether the document is addressable by itself without
// implying a child space of the same name.
func (d *DocumentReference) Terminal() bool {
	return d.terminal
}

// WithTerminal returns a copy of the reference with the terminal flag set.
func (d *DocumentReference) WithTerminal(terminal bool) *DocumentReference {
	return &DocumentReference{name: d.name, space: d.space, terminal: terminal}
}

// Type returns EntityTypeDocument.
func (d *DocumentReference) Type() EntityType {
	return EntityTypeDocument
}

// Parent returns the space, or nil when the document has none.
func (d *DocumentReference) Parent() EntityReference {
	if d.space == nil {
		return nil
	}
	return d.space
}

func (d *DocumentReference) String() string {
	return render(d)
}

func (d *DocumentReference) entityReference() {}

// AttachmentReference is a file attached to a document.
//
// Backend metadata carries flags that only make sense to the backend that
// produced the reference, e.g. {"nextcloud-specific": "true"}.
type AttachmentReference struct {
	name     string
	document *DocumentReference
	metadata map[string]string
}

// NewAttachmentReference creates an attachment reference. The attachment
// keeps its own copy of document and metadata.
func NewAttachmentReference(name string, document *DocumentReference, metadata map[string]string) *AttachmentReference {
	a := &AttachmentReference{name: name}
	if document != nil {
		doc := *document
		a.document = &doc
	}
	if len(metadata) > 0 {
		a.metadata = maps.Clone(metadata)
	}
	return a
}

// Name returns the attachment file name.
func (a *AttachmentReference) Name() string {
	return a.name
}

// Document returns the owning document.
func (a *AttachmentReference) Document() *DocumentReference {
	return a.document
}

// Metadata returns a copy of the backend metadata. It is nil when empty.
func (a *AttachmentReference) Metadata() map[string]string {
	return maps.Clone(a.metadata)
}

// MetadataValue returns a single backend metadata entry.
func (a *AttachmentReference) MetadataValue(key string) (string, bool) {
	v, ok := a.metadata[key]
	return v, ok
}

// Type returns EntityTypeAttachment.
func (a *AttachmentReference) Type() EntityType {
	return EntityTypeAttachment
}

// Parent returns the owning document.
func (a *AttachmentReference) Parent() EntityReference {
	if a.document == nil {
		return nil
	}
	return a.document
}

func (a *AttachmentReference) String() string {
	return render(a)
}

func (a *AttachmentReference) entityReference() {}

// render formats a reference as TYPE[wiki:segment/segment@attachment].
func render(ref EntityReference) string {
	var (
		wiki     string
		segments []string
		file     string
	)
	for r := ref; r != nil; r = r.Parent() {
		switch v := r.(type) {
		case *WikiReference:
			wiki = v.name
		case *SpaceReference:
			segments = append(slices.Clone(v.names), segments...)
		case *DocumentReference:
			segments = append(segments, v.name)
		case *AttachmentReference:
			file = v.name
		}
	}

	var b strings.Builder
	b.WriteString(wiki)
	if wiki != "" && (len(segments) > 0 || file != "") {
		b.WriteString(":")
	}
	b.WriteString(strings.Join(segments, "/"))
	if file != "" {
		b.WriteString("@")
		b.WriteString(file)
	}
	return fmt.Sprintf("%s[%s]", ref.Type(), b.String())
}
