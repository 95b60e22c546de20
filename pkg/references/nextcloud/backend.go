package nextcloud

import (
	"github.com/hashicorp/go-hclog"

	"github.com/xwiki-contrib/cristal-go/pkg/auth"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

// NewBackend returns the Nextcloud reference components. File ids are
// resolved against cfg.BaseURL with credentials from provider; with an
// empty BaseURL only path references can be parsed.
func NewBackend(cfg *Config, provider auth.Provider, logger hclog.Logger) references.Backend {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("nextcloud")

	var resolver FileResolver
	if cfg.BaseURL != "" {
		resolver = NewOCSClient(cfg, provider, logger)
	}

	return references.Backend{
		Parser:     NewParser(cfg, resolver, logger),
		Serializer: NewSerializer(),
		Handler:    references.DefaultHandler{},
	}
}
