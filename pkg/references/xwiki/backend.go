package xwiki

import (
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

// NewBackend returns the XWiki reference components, ready to register.
func NewBackend() references.Backend {
	return references.Backend{
		Parser:     NewParser(),
		Serializer: NewSerializer(),
		Handler:    NewHandler(),
	}
}
