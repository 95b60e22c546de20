package nextcloud

import (
	"fmt"
	"strings"

	"github.com/xwiki-contrib/cristal-go/pkg/model"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

// Serializer renders references as Nextcloud paths.
type Serializer struct{}

var _ references.Serializer = Serializer{}

// NewSerializer creates a Nextcloud serializer.
func NewSerializer() Serializer {
	return Serializer{}
}

// Serialize renders ref as a slash separated path. A nil reference
// serializes to "". Wiki references cannot be expressed: Nextcloud has a
// single wiki per storage root.
func (s Serializer) Serialize(ref model.EntityReference) (string, error) {
	if model.IsNil(ref) {
		return "", nil
	}

	switch r := ref.(type) {
	case *model.WikiReference:
		return "", fmt.Errorf("%w: Wiki currently not supported from Nextcloud: %q",
			references.ErrUnsupported, r.Name())
	case *model.SpaceReference:
		return strings.Join(r.Names(), "/"), nil
	case *model.DocumentReference:
		if r.Space() == nil {
			return r.Name(), nil
		}
		space, err := s.Serialize(r.Space())
		if err != nil {
			return "", err
		}
		return space + "/" + r.Name(), nil
	case *model.AttachmentReference:
		document, err := s.Serialize(r.Document())
		if err != nil {
			return "", err
		}
		return document + "/" + attachmentsFolder + "/" + r.Name(), nil
	default:
		return "", references.UnknownType(ref)
	}
}
