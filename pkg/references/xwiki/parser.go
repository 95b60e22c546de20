// Package xwiki implements the reference grammar of the XWiki backend.
//
// XWiki references are dot separated paths with an optional wiki prefix and
// an optional attachment suffix:
//
//	[wiki:]Space.Nested.Page[@file.png]
//
// The grammar has no escaping: dots inside names cannot be expressed.
package xwiki

import (
	"context"
	"fmt"
	"strings"

	"github.com/xwiki-contrib/cristal-go/pkg/model"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

// WebHome is the name of the home document of a space.
const WebHome = "WebHome"

const attachMarker = ":attach:"

// Parser parses XWiki reference strings. It never performs I/O.
type Parser struct{}

var _ references.Parser = Parser{}

// NewParser creates an XWiki parser.
func NewParser() Parser {
	return Parser{}
}

// Parse parses an XWiki reference.
//
// The wiki prefix, when present, is accepted but dropped: cross-wiki
// references resolve in the current wiki.
func (p Parser) Parse(reference string, opts references.ParseOptions) (model.EntityReference, error) {
	if reference == "" {
		return nil, references.MalformedReference(reference, "empty reference")
	}

	splits := strings.Split(reference, ":")
	noWiki := splits[len(splits)-1]

	if opts.Type == model.EntityTypeWiki {
		return model.NewWikiReference(reference), nil
	}
	if noWiki == "" {
		return nil, references.MalformedReference(reference, "empty reference after wiki prefix")
	}
	if opts.Type == model.EntityTypeSpace {
		names, err := splitNames(reference, noWiki)
		if err != nil {
			return nil, err
		}
		return model.NewSpaceReference(nil, names...), nil
	}

	if strings.Contains(noWiki, "@") ||
		strings.Contains(reference, attachMarker) ||
		opts.Type == model.EntityTypeAttachment {
		attachment, err := p.parseAttachment(reference, noWiki, opts)
		if err != nil {
			return nil, err
		}
		return attachment, nil
	}

	document, err := p.parseDocument(reference, noWiki, opts)
	if err != nil {
		return nil, err
	}
	return document, nil
}

// ParseAsync is Parse; the XWiki grammar never needs the server.
func (p Parser) ParseAsync(_ context.Context, reference string, opts references.ParseOptions) (model.EntityReference, error) {
	return p.Parse(reference, opts)
}

func (p Parser) parseAttachment(reference, noWiki string, opts references.ParseOptions) (*model.AttachmentReference, error) {
	parts := strings.Split(noWiki, "@")

	switch len(parts) {
	case 1:
		current := opts.CurrentDocument()
		if current == nil {
			return nil, fmt.Errorf("%w: %q", references.ErrNoCurrentDocument, reference)
		}
		return model.NewAttachmentReference(noWiki, current, nil), nil
	case 2:
		if parts[0] == "" {
			return nil, references.MalformedReference(reference, "missing document before '@'")
		}
		if parts[1] == "" {
			return nil, references.MalformedReference(reference, "missing attachment name after '@'")
		}
		document, err := p.parseDocument(reference, parts[0], opts)
		if err != nil {
			return nil, err
		}
		return model.NewAttachmentReference(parts[1], document, nil), nil
	default:
		return nil, references.MalformedReference(reference, "more than one '@' separator")
	}
}

func (p Parser) parseDocument(reference, path string, opts references.ParseOptions) (*model.DocumentReference, error) {
	segments, err := splitNames(reference, path)
	if err != nil {
		return nil, err
	}

	if len(segments) == 1 && segments[0] == WebHome {
		current := opts.CurrentDocument()
		if current == nil {
			return nil, fmt.Errorf("%w: %q", references.ErrNoCurrentDocument, reference)
		}
		return model.NewDocumentReference(WebHome, current.Space()), nil
	}

	last := len(segments) - 1
	var space *model.SpaceReference
	if last > 0 {
		space = model.NewSpaceReference(nil, segments[:last]...)
	}
	return model.NewDocumentReference(segments[last], space), nil
}

// splitNames splits path on dots. Empty names are rejected.
func splitNames(reference, path string) ([]string, error) {
	names := strings.Split(path, ".")
	for _, name := range names {
		if name == "" {
			return nil, references.MalformedReference(reference, "empty name")
		}
	}
	return names, nil
}
