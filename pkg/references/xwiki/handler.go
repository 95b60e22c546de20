package xwiki

import (
	"github.com/xwiki-contrib/cristal-go/pkg/model"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

// Handler implements the XWiki page conventions: every page is the WebHome
// document of its own space.
type Handler struct{}

var _ references.Handler = Handler{}

// NewHandler creates an XWiki handler.
func NewHandler() Handler {
	return Handler{}
}

// CreateDocumentReference returns Space.name.WebHome, keeping the wiki of
// space.
func (Handler) CreateDocumentReference(name string, space *model.SpaceReference) *model.DocumentReference {
	var (
		wiki  *model.WikiReference
		names []string
	)
	if space != nil {
		wiki = space.Wiki()
		names = space.Names()
	}
	return model.NewDocumentReference(WebHome, model.NewSpaceReference(wiki, append(names, name)...))
}

// GetTitle returns the display title of ref. A WebHome document is titled
// after its space.
func (h Handler) GetTitle(ref model.EntityReference) string {
	switch r := ref.(type) {
	case *model.WikiReference:
		return r.Name()
	case *model.SpaceReference:
		return r.Name()
	case *model.DocumentReference:
		if r.Name() == WebHome && r.Space() != nil {
			return h.GetTitle(r.Space())
		}
		return r.Name()
	case *model.AttachmentReference:
		return r.Name()
	default:
		return ""
	}
}
