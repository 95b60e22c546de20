package references

import (
	"github.com/xwiki-contrib/cristal-go/pkg/model"
)

// DefaultHandler implements Handler for backends where a document is stored
// directly under its space (no home page convention).
type DefaultHandler struct{}

var _ Handler = DefaultHandler{}

// CreateDocumentReference returns a terminal document called name in space.
func (DefaultHandler) CreateDocumentReference(name string, space *model.SpaceReference) *model.DocumentReference {
	return model.NewDocumentReference(name, space).WithTerminal(true)
}

// GetTitle returns the name of the referenced entity. For a space it is the
// innermost segment. Unknown reference kinds get an empty title.
func (DefaultHandler) GetTitle(ref model.EntityReference) string {
	switch r := ref.(type) {
	case *model.WikiReference:
		return r.Name()
	case *model.SpaceReference:
		return r.Name()
	case *model.DocumentReference:
		return r.Name()
	case *model.AttachmentReference:
		return r.Name()
	default:
		return ""
	}
}
