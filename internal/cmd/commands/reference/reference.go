// Package reference implements the commands that parse, convert and resolve
// entity references.
package reference

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/xwiki-contrib/cristal-go/internal/backends"
	"github.com/xwiki-contrib/cristal-go/internal/cmd/base"
	"github.com/xwiki-contrib/cristal-go/internal/config"
	"github.com/xwiki-contrib/cristal-go/pkg/docservice"
	"github.com/xwiki-contrib/cristal-go/pkg/model"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

// contextFlags are the flags shared by commands that parse a reference.
type contextFlags struct {
	flagType    string
	flagCurrent string
}

func (c *contextFlags) register(f *base.FlagSet) {
	f.StringVar(
		&c.flagType, "type", "",
		"Expected entity type: wiki, space, document or attachment. "+
			"Inferred from the reference when empty.",
	)
	f.StringVar(
		&c.flagCurrent, "current", "",
		"Reference of the current document, used to resolve relative references.",
	)
}

// parseOptions builds the parse options. The current document is written
// in the grammar of parser.
func (c *contextFlags) parseOptions(parser references.Parser, log hclog.Logger) (references.ParseOptions, error) {
	entityType, err := model.ParseEntityType(c.flagType)
	if err != nil {
		return references.ParseOptions{}, err
	}

	opts := references.ParseOptions{Type: entityType}
	if c.flagCurrent == "" {
		return opts, nil
	}

	ref, err := parser.Parse(c.flagCurrent, references.ParseOptions{Type: model.EntityTypeDocument})
	if err != nil {
		return references.ParseOptions{}, fmt.Errorf("error parsing current document: %w", err)
	}
	current, ok := ref.(*model.DocumentReference)
	if !ok {
		return references.ParseOptions{}, fmt.Errorf("current reference %q is not a document", c.flagCurrent)
	}

	svc := docservice.New(log)
	svc.SetCurrentDocumentReference(current)
	opts.Context = docservice.ResolutionContext(svc)
	return opts, nil
}

// loadRegistry builds the backend registry, from the configuration file at
// path when one is given.
func loadRegistry(path string, log hclog.Logger) (*references.Registry, error) {
	var cfg *config.Config
	if path != "" {
		var err error
		cfg, err = config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		log.SetLevel(cfg.Level())
	}
	return backends.NewRegistry(cfg, log)
}

// loadBackend builds the backend configured under name.
func loadBackend(path, name string, log hclog.Logger) (*config.Config, references.Backend, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, references.Backend{}, err
	}
	log.SetLevel(cfg.Level())

	block, ok := cfg.Backend(name)
	if !ok {
		return nil, references.Backend{}, fmt.Errorf("backend %q is not configured", name)
	}

	backend, err := backends.New(block, log)
	if err != nil {
		return nil, references.Backend{}, err
	}
	return cfg, backend, nil
}
