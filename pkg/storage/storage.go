// Package storage defines how pages are read and written by reference.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/xwiki-contrib/cristal-go/pkg/model"
)

// ErrPageNotFound is returned when no page exists for a reference.
var ErrPageNotFound = errors.New("page not found")

// Page is the stored form of a document.
type Page struct {
	Reference    *model.DocumentReference
	Content      string
	Syntax       string
	Version      string
	LastModified time.Time
}

// Storage reads and writes pages addressed by document reference.
type Storage interface {
	// GetPage returns the page of ref, or an error wrapping ErrPageNotFound.
	GetPage(ctx context.Context, ref *model.DocumentReference) (*Page, error)

	// SavePage creates or replaces page.
	SavePage(ctx context.Context, page *Page) error

	// DeletePage removes the page of ref, or returns an error wrapping
	// ErrPageNotFound.
	DeletePage(ctx context.Context, ref *model.DocumentReference) error
}
