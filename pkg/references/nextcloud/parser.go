// Package nextcloud implements the reference grammar of the Nextcloud
// backend.
//
// Pages are stored as markdown files in nested folders. References use the
// same slash separated layout without the ".md" suffix, and attachments are
// addressed under an "attachments" folder named after their page:
//
//	Space/Nested/Page
//	Space/Nested/Page/attachments/image.png
//
// The serializer writes this form. The parser also accepts the dot prefixed
// folder of the on-disk layout (Space/Nested/.Page/attachments/image.png)
// and drops one leading dot from the page segment, so a page whose name
// starts with a dot does not survive an attachment round trip.
// Absolute file URLs of the configured instance are resolved through the OCS
// reference API.
package nextcloud

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/xwiki-contrib/cristal-go/pkg/model"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

const (
	attachmentsFolder = "attachments"

	// SpecificMetadataKey marks attachments resolved by file id rather than
	// by path.
	SpecificMetadataKey = "nextcloud-specific"
)

var (
	absoluteURLPattern    = regexp.MustCompile(`^https?://`)
	attachmentByIDPattern = regexp.MustCompile(`^\.attachments\.(?P<id>\d+)/(?P<file>.+)$`)
)

// Parser parses Nextcloud reference strings.
type Parser struct {
	config   *Config
	resolver FileResolver
	logger   hclog.Logger
}

var _ references.Parser = (*Parser)(nil)

// NewParser creates a parser. resolver may be nil, in which case references
// that need the server fail with ErrUnsupported.
func NewParser(cfg *Config, resolver FileResolver, logger hclog.Logger) *Parser {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Parser{
		config:   cfg,
		resolver: resolver,
		logger:   logger.Named("parser"),
	}
}

// Parse parses a path reference without contacting the server. Absolute
// URLs are rejected; use ParseAsync for them.
func (p *Parser) Parse(reference string, opts references.ParseOptions) (model.EntityReference, error) {
	if absoluteURLPattern.MatchString(reference) {
		return nil, references.MalformedReference(reference, "absolute URLs require ParseAsync")
	}

	switch opts.Type {
	case model.EntityTypeWiki:
		return nil, fmt.Errorf("%w: wiki references are not supported by Nextcloud: %q",
			references.ErrUnsupported, reference)
	case model.EntityTypeSpace:
		segments, err := splitSegments(reference)
		if err != nil {
			return nil, err
		}
		return model.NewSpaceReference(nil, segments...), nil
	}

	return parsePath(reference)
}

// ParseAsync parses reference, resolving file ids through the OCS API when
// needed. The resolution context is read once, before any request is made.
func (p *Parser) ParseAsync(ctx context.Context, reference string, opts references.ParseOptions) (model.EntityReference, error) {
	if absoluteURLPattern.MatchString(reference) {
		return p.parseURL(ctx, reference)
	}

	if opts.Type == model.EntityTypeAttachment && !strings.HasPrefix(reference, "/") {
		attachment, err := p.parseRelativeAttachment(ctx, reference, opts.CurrentDocument())
		if err != nil {
			return nil, err
		}
		return attachment, nil
	}

	return p.Parse(reference, opts)
}

// parseURL resolves an absolute file URL of the configured instance.
func (p *Parser) parseURL(ctx context.Context, reference string) (model.EntityReference, error) {
	path, ok := p.instancePath(reference)
	if !ok {
		return nil, references.MalformedReference(reference, "URL is outside of the configured base URL")
	}

	id, err := fileID(reference, path)
	if err != nil {
		return nil, err
	}

	return p.resolveFileID(ctx, reference, id)
}

// instancePath returns the part of reference following the base URL, and
// false when reference is not located under the base URL.
func (p *Parser) instancePath(reference string) (string, bool) {
	base := p.config.baseURL()
	if base == "" {
		return "", false
	}
	rest, ok := strings.CutPrefix(reference, base)
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return "", false
	}
	return rest, true
}

// fileID extracts the numeric id of a ".../f/<id>" file URL path.
func fileID(reference, path string) (int, error) {
	_, after, found := strings.Cut(path, "/f/")
	if !found {
		return 0, references.MalformedReference(reference, "missing file id")
	}

	if i := strings.IndexAny(after, "/?#"); i >= 0 {
		after = after[:i]
	}

	id, err := strconv.Atoi(after)
	if err != nil || id < 0 {
		return 0, references.MalformedReference(reference, fmt.Sprintf("invalid file id %q", after))
	}
	return id, nil
}

// resolveFileID asks the server for the path of file id and parses it.
func (p *Parser) resolveFileID(ctx context.Context, reference string, id int) (model.EntityReference, error) {
	if p.resolver == nil || p.config.baseURL() == "" {
		return nil, fmt.Errorf("%w: resolving file ids needs a configured Nextcloud instance: %q",
			references.ErrUnsupported, reference)
	}

	fileURL := p.config.baseURL() + "/f/" + strconv.Itoa(id)

	p.logger.Debug("resolving file id", "reference", reference, "file_id", id)

	path, err := p.resolver.ResolvePath(ctx, fileURL)
	if err != nil {
		return nil, fmt.Errorf("error resolving file id %d of %q: %w", id, reference, err)
	}

	path = strings.TrimPrefix(path, p.config.storageRoot())
	path = strings.TrimSuffix(path, ".md")

	ref, err := parsePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolved path %q of %q is not a reference",
			references.ErrMalformedResponse, path, reference)
	}
	return ref, nil
}

// parseRelativeAttachment parses an attachment reference written relative
// to the space of current.
func (p *Parser) parseRelativeAttachment(ctx context.Context, reference string, current *model.DocumentReference) (*model.AttachmentReference, error) {
	if m := attachmentByIDPattern.FindStringSubmatch(reference); m != nil {
		idText := m[attachmentByIDPattern.SubexpIndex("id")]
		file := m[attachmentByIDPattern.SubexpIndex("file")]

		id, err := strconv.Atoi(idText)
		if err != nil {
			return nil, references.MalformedReference(reference, fmt.Sprintf("invalid file id %q", idText))
		}

		ref, err := p.resolveFileID(ctx, reference, id)
		if err != nil {
			return nil, err
		}

		document, ok := ref.(*model.DocumentReference)
		if !ok {
			return nil, references.MalformedReference(reference,
				fmt.Sprintf("file id %d does not identify a document", id))
		}

		return model.NewAttachmentReference(file, document, map[string]string{
			SpecificMetadataKey: "true",
		}), nil
	}

	segments := strings.Split(reference, "/")
	n := len(segments)
	if n < 3 || segments[n-2] != attachmentsFolder {
		return nil, references.MalformedReference(reference,
			"expected <document>/attachments/<file>")
	}

	if current == nil {
		return nil, fmt.Errorf("%w: %q", references.ErrNoCurrentDocument, reference)
	}

	var wiki *model.WikiReference
	var spaceNames []string
	if space := current.Space(); space != nil {
		wiki = space.Wiki()
		spaceNames = space.Names()
	}

	for _, segment := range segments[:n-3] {
		switch segment {
		case "", ".":
		case "..":
			if len(spaceNames) == 0 {
				return nil, references.MalformedReference(reference, "path escapes the root space")
			}
			spaceNames = spaceNames[:len(spaceNames)-1]
		default:
			spaceNames = append(spaceNames, segment)
		}
	}

	documentName := strings.TrimPrefix(segments[n-3], ".")
	if documentName == "" || segments[n-1] == "" {
		return nil, references.MalformedReference(reference, "empty document or attachment name")
	}

	var space *model.SpaceReference
	if len(spaceNames) > 0 || wiki != nil {
		space = model.NewSpaceReference(wiki, spaceNames...)
	}

	return model.NewAttachmentReference(segments[n-1],
		model.NewDocumentReference(documentName, space), nil), nil
}

// splitSegments splits a path on "/", dropping the leading slash of absolute
// paths.
func splitSegments(reference string) ([]string, error) {
	if reference == "" {
		return nil, references.MalformedReference(reference, "empty reference")
	}

	segments := strings.Split(reference, "/")
	if segments[0] == "" {
		segments = segments[1:]
	}

	if len(segments) == 0 {
		return nil, references.MalformedReference(reference, "no path segments")
	}
	for _, segment := range segments {
		if segment == "" {
			return nil, references.MalformedReference(reference, "empty path segment")
		}
	}

	return segments, nil
}

// parsePath parses a document or attachment path.
func parsePath(reference string) (model.EntityReference, error) {
	segments, err := splitSegments(reference)
	if err != nil {
		return nil, err
	}

	n := len(segments)
	if n >= 3 && segments[n-2] == attachmentsFolder {
		documentName := strings.TrimPrefix(segments[n-3], ".")
		if documentName == "" {
			return nil, references.MalformedReference(reference, "empty document name")
		}
		document := model.NewDocumentReference(documentName, spaceOf(segments[:n-3]))
		return model.NewAttachmentReference(segments[n-1], document, nil), nil
	}

	return model.NewDocumentReference(segments[n-1], spaceOf(segments[:n-1])), nil
}

func spaceOf(names []string) *model.SpaceReference {
	if len(names) == 0 {
		return nil
	}
	return model.NewSpaceReference(nil, names...)
}
