package xwiki

import (
	"strings"

	"github.com/xwiki-contrib/cristal-go/pkg/model"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

// Serializer renders references in the XWiki grammar.
type Serializer struct{}

var _ references.Serializer = Serializer{}

// NewSerializer creates an XWiki serializer.
func NewSerializer() Serializer {
	return Serializer{}
}

// Serialize renders ref, parents first. A nil reference serializes to "".
func (s Serializer) Serialize(ref model.EntityReference) (string, error) {
	if model.IsNil(ref) {
		return "", nil
	}

	switch r := ref.(type) {
	case *model.WikiReference:
		return r.Name(), nil
	case *model.SpaceReference:
		names := strings.Join(r.Names(), ".")
		if r.Wiki() == nil {
			return names, nil
		}
		wiki, err := s.Serialize(r.Wiki())
		if err != nil {
			return "", err
		}
		return wiki + ":" + names, nil
	case *model.DocumentReference:
		if r.Space() == nil {
			return r.Name(), nil
		}
		space, err := s.Serialize(r.Space())
		if err != nil {
			return "", err
		}
		return space + "." + r.Name(), nil
	case *model.AttachmentReference:
		document, err := s.Serialize(r.Document())
		if err != nil {
			return "", err
		}
		return document + "@" + r.Name(), nil
	default:
		return "", references.UnknownType(ref)
	}
}
