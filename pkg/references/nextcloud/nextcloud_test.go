package nextcloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xwiki-contrib/cristal-go/pkg/auth"
	"github.com/xwiki-contrib/cristal-go/pkg/model"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

const storageRoot = "/alice/.cristal"

// foreignReference satisfies the sealed interface through embedding but is
// none of the four known reference kinds.
type foreignReference struct {
	*model.WikiReference
}

func (foreignReference) Type() model.EntityType {
	return model.EntityType(99)
}

func space(names ...string) *model.SpaceReference {
	return model.NewSpaceReference(nil, names...)
}

// ocsServer answers OCS reference resolution requests from a table of file
// id to path. A nil path answers with a null entry.
type ocsServer struct {
	*httptest.Server

	status int
	paths  map[string]*string

	mu       sync.Mutex
	requests []*http.Request
}

func newOCSServer(t *testing.T, paths map[string]*string) *ocsServer {
	t.Helper()

	s := &ocsServer{status: http.StatusOK, paths: paths}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *ocsServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(context.Background()))
	s.mu.Unlock()

	if r.URL.Path != resolvePath {
		http.NotFound(w, r)
		return
	}
	if s.status != http.StatusOK {
		http.Error(w, "boom", s.status)
		return
	}

	reference := r.URL.Query().Get("reference")
	id := strings.TrimPrefix(reference, "http://"+r.Host+"/f/")

	refs := map[string]any{}
	if path, ok := s.paths[id]; ok {
		if path == nil {
			refs[reference] = nil
		} else {
			refs[reference] = map[string]any{
				"richObjectType": "file",
				"richObject": map[string]any{
					"id":   id,
					"path": *path,
				},
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ocs": map[string]any{
			"meta": map[string]any{"status": "ok", "statuscode": 200},
			"data": map[string]any{"references": refs},
		},
	})
}

func (s *ocsServer) lastRequest(t *testing.T) *http.Request {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

func (s *ocsServer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func ptr(s string) *string {
	return &s
}

func newTestParser(t *testing.T, srv *ocsServer, provider auth.Provider) *Parser {
	t.Helper()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL + "/"
	cfg.StorageRoot = storageRoot + "/"
	return NewParser(cfg, NewOCSClient(cfg, provider, nil), nil)
}

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		opts      references.ParseOptions
		want      model.EntityReference
	}{
		{
			name:      "document in space",
			reference: "Space/Page",
			want:      model.NewDocumentReference("Page", space("Space")),
		},
		{
			name:      "absolute path",
			reference: "/A/B/Page",
			want:      model.NewDocumentReference("Page", space("A", "B")),
		},
		{
			name:      "single segment",
			reference: "Page",
			want:      model.NewDocumentReference("Page", nil),
		},
		{
			name:      "attachment directory",
			reference: "Space/.Page/attachments/file.png",
			want: model.NewAttachmentReference("file.png",
				model.NewDocumentReference("Page", space("Space")), nil),
		},
		{
			name:      "attachment directory without dot",
			reference: "A/B/Page/attachments/file.png",
			want: model.NewAttachmentReference("file.png",
				model.NewDocumentReference("Page", space("A", "B")), nil),
		},
		{
			name:      "attachment of root document",
			reference: ".Page/attachments/file.png",
			want: model.NewAttachmentReference("file.png",
				model.NewDocumentReference("Page", nil), nil),
		},
		{
			name:      "attachments as document name",
			reference: "Space/attachments",
			want:      model.NewDocumentReference("attachments", space("Space")),
		},
		{
			name:      "explicit space type",
			reference: "A/B",
			opts:      references.ParseOptions{Type: model.EntityTypeSpace},
			want:      space("A", "B"),
		},
	}

	p := NewParser(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.reference, tt.opts)
			require.NoError(t, err)
			assert.True(t, model.Equal(tt.want, got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestParser_ParseErrors(t *testing.T) {
	p := NewParser(nil, nil, nil)

	tests := []struct {
		name      string
		reference string
		opts      references.ParseOptions
		wantErr   error
	}{
		{"empty", "", references.ParseOptions{}, references.ErrMalformedReference},
		{"only a slash", "/", references.ParseOptions{}, references.ErrMalformedReference},
		{"empty segment", "A//B", references.ParseOptions{}, references.ErrMalformedReference},
		{"trailing slash", "A/B/", references.ParseOptions{}, references.ErrMalformedReference},
		{"absolute URL", "https://my.cloud/f/42", references.ParseOptions{}, references.ErrMalformedReference},
		{"wiki type", "wiki", references.ParseOptions{Type: model.EntityTypeWiki}, references.ErrUnsupported},
		{"empty document name", "A/./attachments/f.png", references.ParseOptions{}, references.ErrMalformedReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.reference, tt.opts)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParser_ParseAsyncURL(t *testing.T) {
	srv := newOCSServer(t, map[string]*string{
		"42": ptr(storageRoot + "/Space/Page.md"),
		"7":  ptr(storageRoot + "/Space/.Page/attachments/file.png"),
		"8":  nil,
		"9":  ptr(""),
		"10": ptr(storageRoot + "/A//B.md"),
	})
	provider := auth.StaticProvider{Manager: auth.BasicManager{Username: "alice", Password: "secret"}}
	p := newTestParser(t, srv, provider)
	ctx := context.Background()

	t.Run("document", func(t *testing.T) {
		got, err := p.ParseAsync(ctx, srv.URL+"/f/42", references.ParseOptions{})
		require.NoError(t, err)
		assert.True(t, model.Equal(model.NewDocumentReference("Page", space("Space")), got), "got %v", got)

		req := srv.lastRequest(t)
		assert.Equal(t, resolvePath, req.URL.Path)
		assert.Equal(t, srv.URL+"/f/42", req.URL.Query().Get("reference"))
		assert.Equal(t, "true", req.Header.Get("OCS-APIRequest"))
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		assert.Equal(t, "Basic YWxpY2U6c2VjcmV0", req.Header.Get("Authorization"))
	})

	t.Run("file URL with trailing path", func(t *testing.T) {
		got, err := p.ParseAsync(ctx, srv.URL+"/f/42?openfile=true", references.ParseOptions{})
		require.NoError(t, err)
		assert.True(t, model.Equal(model.NewDocumentReference("Page", space("Space")), got), "got %v", got)
	})

	t.Run("attachment", func(t *testing.T) {
		got, err := p.ParseAsync(ctx, srv.URL+"/f/7", references.ParseOptions{})
		require.NoError(t, err)
		want := model.NewAttachmentReference("file.png", model.NewDocumentReference("Page", space("Space")), nil)
		assert.True(t, model.Equal(want, got), "got %v", got)
	})

	t.Run("non numeric file id", func(t *testing.T) {
		before := srv.requestCount()
		_, err := p.ParseAsync(ctx, srv.URL+"/f/abc", references.ParseOptions{})
		assert.ErrorIs(t, err, references.ErrMalformedReference)
		assert.Equal(t, before, srv.requestCount())
	})

	t.Run("missing file id", func(t *testing.T) {
		_, err := p.ParseAsync(ctx, srv.URL+"/apps/files", references.ParseOptions{})
		assert.ErrorIs(t, err, references.ErrMalformedReference)
	})

	t.Run("unknown file", func(t *testing.T) {
		_, err := p.ParseAsync(ctx, srv.URL+"/f/1", references.ParseOptions{})
		assert.ErrorIs(t, err, references.ErrMalformedResponse)
	})

	t.Run("null entry", func(t *testing.T) {
		_, err := p.ParseAsync(ctx, srv.URL+"/f/8", references.ParseOptions{})
		assert.ErrorIs(t, err, references.ErrMalformedResponse)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := p.ParseAsync(ctx, srv.URL+"/f/9", references.ParseOptions{})
		assert.ErrorIs(t, err, references.ErrMalformedResponse)
	})

	t.Run("unparsable path", func(t *testing.T) {
		_, err := p.ParseAsync(ctx, srv.URL+"/f/10", references.ParseOptions{})
		assert.ErrorIs(t, err, references.ErrMalformedResponse)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := p.ParseAsync(cancelled, srv.URL+"/f/42", references.ParseOptions{})
		require.ErrorIs(t, err, references.ErrRemote)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParser_ParseAsyncRemoteFailure(t *testing.T) {
	srv := newOCSServer(t, nil)
	srv.status = http.StatusUnauthorized
	p := newTestParser(t, srv, nil)

	_, err := p.ParseAsync(context.Background(), srv.URL+"/f/42", references.ParseOptions{})
	require.ErrorIs(t, err, references.ErrRemote)
	assert.Contains(t, err.Error(), "401")
	assert.Empty(t, srv.lastRequest(t).Header.Get("Authorization"))
}

func TestParser_ParseAsyncOutsideBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://my.cloud"
	p := NewParser(cfg, nil, nil)

	for _, reference := range []string{
		"https://other-host/f/42",
		"https://my.cloud.evil.com/f/42",
		"http://my.cloud/f/42",
	} {
		t.Run(reference, func(t *testing.T) {
			_, err := p.ParseAsync(context.Background(), reference, references.ParseOptions{})
			assert.ErrorIs(t, err, references.ErrMalformedReference)
		})
	}

	t.Run("no base URL", func(t *testing.T) {
		_, err := NewParser(nil, nil, nil).ParseAsync(context.Background(),
			"https://my.cloud/f/42", references.ParseOptions{})
		assert.ErrorIs(t, err, references.ErrMalformedReference)
	})
}

func TestParser_ParseAsyncRelativeAttachment(t *testing.T) {
	current := model.NewDocumentReference("Page", space("A", "B"))
	opts := references.ParseOptions{
		Type:    model.EntityTypeAttachment,
		Context: &references.ResolutionContext{CurrentDocument: current},
	}

	tests := []struct {
		name      string
		reference string
		want      model.EntityReference
	}{
		{
			name:      "sibling document",
			reference: ".Other/attachments/f.png",
			want: model.NewAttachmentReference("f.png",
				model.NewDocumentReference("Other", space("A", "B")), nil),
		},
		{
			name:      "current directory",
			reference: "./.Page/attachments/f.png",
			want: model.NewAttachmentReference("f.png",
				model.NewDocumentReference("Page", space("A", "B")), nil),
		},
		{
			name:      "parent space",
			reference: "../.Other/attachments/f.png",
			want: model.NewAttachmentReference("f.png",
				model.NewDocumentReference("Other", space("A")), nil),
		},
		{
			name:      "up to the root",
			reference: "../../.Root/attachments/f.png",
			want: model.NewAttachmentReference("f.png",
				model.NewDocumentReference("Root", nil), nil),
		},
		{
			name:      "nested space",
			reference: "C/.Doc/attachments/f.png",
			want: model.NewAttachmentReference("f.png",
				model.NewDocumentReference("Doc", space("A", "B", "C")), nil),
		},
		{
			name:      "up then down",
			reference: "../X/.Doc/attachments/f.png",
			want: model.NewAttachmentReference("f.png",
				model.NewDocumentReference("Doc", space("A", "X")), nil),
		},
		{
			name:      "absolute path",
			reference: "/Space/.Page/attachments/f.png",
			want: model.NewAttachmentReference("f.png",
				model.NewDocumentReference("Page", space("Space")), nil),
		},
	}

	p := NewParser(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseAsync(context.Background(), tt.reference, opts)
			require.NoError(t, err)
			assert.True(t, model.Equal(tt.want, got), "want %v, got %v", tt.want, got)
		})
	}

	t.Run("escapes the root", func(t *testing.T) {
		_, err := p.ParseAsync(context.Background(), "../../../.P/attachments/f.png", opts)
		assert.ErrorIs(t, err, references.ErrMalformedReference)
	})

	t.Run("not an attachment path", func(t *testing.T) {
		_, err := p.ParseAsync(context.Background(), "image.png", opts)
		assert.ErrorIs(t, err, references.ErrMalformedReference)
	})

	t.Run("without current document", func(t *testing.T) {
		_, err := p.ParseAsync(context.Background(), ".Page/attachments/f.png",
			references.ParseOptions{Type: model.EntityTypeAttachment})
		assert.ErrorIs(t, err, references.ErrNoCurrentDocument)
	})

	t.Run("does not modify the current document", func(t *testing.T) {
		_, err := p.ParseAsync(context.Background(), "../.Other/attachments/f.png", opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, current.Space().Names())
	})
}

func TestParser_ParseAsyncAttachmentByID(t *testing.T) {
	srv := newOCSServer(t, map[string]*string{
		"42": ptr(storageRoot + "/Space/Page.md"),
		"7":  ptr(storageRoot + "/Space/.Page/attachments/file.png"),
	})
	p := newTestParser(t, srv, nil)
	opts := references.ParseOptions{Type: model.EntityTypeAttachment}

	t.Run("resolves the document", func(t *testing.T) {
		got, err := p.ParseAsync(context.Background(), ".attachments.42/image.png", opts)
		require.NoError(t, err)

		want := model.NewAttachmentReference("image.png",
			model.NewDocumentReference("Page", space("Space")),
			map[string]string{SpecificMetadataKey: "true"})
		assert.True(t, model.Equal(want, got), "got %v", got)
		assert.Equal(t, srv.URL+"/f/42", srv.lastRequest(t).URL.Query().Get("reference"))
	})

	t.Run("id of an attachment", func(t *testing.T) {
		_, err := p.ParseAsync(context.Background(), ".attachments.7/image.png", opts)
		assert.ErrorIs(t, err, references.ErrMalformedReference)
	})

	t.Run("without resolver", func(t *testing.T) {
		_, err := NewParser(nil, nil, nil).ParseAsync(context.Background(), ".attachments.42/image.png", opts)
		assert.ErrorIs(t, err, references.ErrUnsupported)
	})
}

func TestSerializer_Serialize(t *testing.T) {
	tests := []struct {
		name string
		ref  model.EntityReference
		want string
	}{
		{"nil", nil, ""},
		{"space", space("A", "B"), "A/B"},
		{"document", model.NewDocumentReference("Page", space("Space")), "Space/Page"},
		{"document without space", model.NewDocumentReference("Page", nil), "Page"},
		{
			"attachment",
			model.NewAttachmentReference("file.png", model.NewDocumentReference("Page", space("Space")), nil),
			"Space/Page/attachments/file.png",
		},
	}

	s := NewSerializer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Serialize(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("wiki is unsupported", func(t *testing.T) {
		_, err := s.Serialize(model.NewWikiReference("anywiki"))
		require.ErrorIs(t, err, references.ErrUnsupported)
		assert.Contains(t, err.Error(), "Wiki currently not supported from Nextcloud")
	})

	t.Run("wiki of a space is ignored", func(t *testing.T) {
		got, err := s.Serialize(model.NewDocumentReference("P",
			model.NewSpaceReference(model.NewWikiReference("w"), "S")))
		require.NoError(t, err)
		assert.Equal(t, "S/P", got)
	})

	t.Run("unknown reference type", func(t *testing.T) {
		_, err := s.Serialize(foreignReference{model.NewWikiReference("w")})
		require.ErrorIs(t, err, references.ErrUnknownType)
		assert.Contains(t, err.Error(), "unknown reference type [")
	})
}

func TestRoundTrip(t *testing.T) {
	refs := []model.EntityReference{
		model.NewDocumentReference("Page", space("Space")),
		model.NewDocumentReference("Page", space("A", "B", "C")),
		model.NewDocumentReference("Page", nil),
		model.NewAttachmentReference("file.png", model.NewDocumentReference("Page", space("Space")), nil),
	}

	p, s := NewParser(nil, nil, nil), NewSerializer()
	for _, ref := range refs {
		t.Run(ref.String(), func(t *testing.T) {
			serialized, err := s.Serialize(ref)
			require.NoError(t, err)

			parsed, err := p.Parse(serialized, references.ParseOptions{})
			require.NoError(t, err)
			assert.True(t, model.Equal(ref, parsed), "round trip of %q gave %v", serialized, parsed)
		})
	}
}

func TestRoundTrip_DotPrefixedAttachmentFolder(t *testing.T) {
	p, s := NewParser(nil, nil, nil), NewSerializer()

	parsed, err := p.Parse("A/.Page/attachments/f.png", references.ParseOptions{})
	require.NoError(t, err)
	serialized, err := s.Serialize(parsed)
	require.NoError(t, err)
	assert.Equal(t, "A/Page/attachments/f.png", serialized)

	parsed, err = p.Parse("A/..x/attachments/f.png", references.ParseOptions{})
	require.NoError(t, err)
	att := parsed.(*model.AttachmentReference)
	assert.Equal(t, ".x", att.Document().Name())

	serialized, err = s.Serialize(att)
	require.NoError(t, err)
	assert.Equal(t, "A/.x/attachments/f.png", serialized)

	reparsed, err := p.Parse(serialized, references.ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, "x", reparsed.(*model.AttachmentReference).Document().Name())
}

func TestNewBackend(t *testing.T) {
	t.Run("without base URL", func(t *testing.T) {
		backend := NewBackend(nil, nil, nil)
		_, err := backend.Parser.ParseAsync(context.Background(), ".attachments.1/x.png",
			references.ParseOptions{Type: model.EntityTypeAttachment})
		assert.ErrorIs(t, err, references.ErrUnsupported)

		doc := backend.Handler.CreateDocumentReference("New", space("A"))
		assert.True(t, doc.Terminal())
	})

	t.Run("with base URL", func(t *testing.T) {
		srv := newOCSServer(t, map[string]*string{"42": ptr("/Space/Page.md")})
		cfg := DefaultConfig()
		cfg.BaseURL = srv.URL

		backend := NewBackend(cfg, auth.StaticProvider{Manager: auth.NewStaticTokenManager("tok")}, nil)
		got, err := backend.Parser.ParseAsync(context.Background(), srv.URL+"/f/42", references.ParseOptions{})
		require.NoError(t, err)
		assert.True(t, model.Equal(model.NewDocumentReference("Page", space("Space")), got))
		assert.Equal(t, "Bearer tok", srv.lastRequest(t).Header.Get("Authorization"))
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"https base URL", func(c *Config) { c.BaseURL = "https://my.cloud" }, false},
		{"ftp base URL", func(c *Config) { c.BaseURL = "ftp://my.cloud" }, true},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
