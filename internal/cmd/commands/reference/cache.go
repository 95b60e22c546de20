package reference

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/xwiki-contrib/cristal-go/internal/backends"
	"github.com/xwiki-contrib/cristal-go/internal/cmd/base"
	"github.com/xwiki-contrib/cristal-go/internal/config"
	"github.com/xwiki-contrib/cristal-go/pkg/model"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
	"github.com/xwiki-contrib/cristal-go/pkg/storage"
	"github.com/xwiki-contrib/cristal-go/pkg/storage/local"
	"github.com/xwiki-contrib/cristal-go/pkg/storage/offline"
)

type CacheCommand struct {
	*base.Command
	contextFlags

	flagBackend string
	flagConfig  string
}

func (c *CacheCommand) Synopsis() string {
	return "Show a page through the offline cache"
}

func (c *CacheCommand) Help() string {
	return `Usage: cristal-ref cache -config FILE -backend NAME [options] REFERENCE

  Resolve a document reference with a configured backend and print its
  page from the offline root of the configuration file. When the backend
  has a base URL, pages missing offline are downloaded and cached, and
  cached pages are refreshed from the server.` +
		c.Flags().Help()
}

func (c *CacheCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(
		flag.NewFlagSet("cache", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to the configuration file.",
	)
	f.StringVar(
		&c.flagBackend, "backend", "", "(Required) Name of the configured backend.",
	)
	c.contextFlags.register(f)

	return f
}

func (c *CacheCommand) Run(args []string) int {
	logger, ui := c.Log, c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if flags.NArg() != 1 {
		ui.Error("expected exactly one reference")
		return 1
	}
	if c.flagConfig == "" || c.flagBackend == "" {
		ui.Error("config and backend flags are required")
		return 1
	}

	cfg, backend, err := loadBackend(c.flagConfig, c.flagBackend, logger)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading backend: %v", err))
		return 1
	}
	if cfg.Offline == nil {
		ui.Error("no offline block in the configuration file")
		return 1
	}

	opts, err := c.parseOptions(backend.Parser, logger)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ref, err := backend.Parser.ParseAsync(ctx, flags.Arg(0), opts)
	if err != nil {
		ui.Error(fmt.Sprintf("error resolving reference: %v", err))
		return 1
	}
	doc, ok := ref.(*model.DocumentReference)
	if !ok {
		ui.Error(fmt.Sprintf("%s is not a document", ref))
		return 1
	}

	store, err := newPageStore(cfg, c.flagBackend, backend.Serializer, logger)
	if err != nil {
		ui.Error(fmt.Sprintf("error opening page storage: %v", err))
		return 1
	}

	page, err := store.GetPage(ctx, doc)
	updated := store.close()
	if errors.Is(err, storage.ErrPageNotFound) {
		if store.network {
			ui.Error(fmt.Sprintf("%s not found", doc))
		} else {
			ui.Error(fmt.Sprintf("%s is not available offline", doc))
		}
		return 1
	}
	if err != nil {
		ui.Error(fmt.Sprintf("error reading page: %v", err))
		return 1
	}

	ui.Info(fmt.Sprintf("Version:       %s", page.Version))
	ui.Info(fmt.Sprintf("Syntax:        %s", page.Syntax))
	if !page.LastModified.IsZero() {
		ui.Info(fmt.Sprintf("Last modified: %s", page.LastModified.Format(time.RFC3339)))
	}
	ui.Output(page.Content)
	if updated != nil {
		ui.Info(fmt.Sprintf("Offline copy refreshed to version %s", updated.Version))
	}
	return 0
}

// pageStore reads pages from the offline root, through the network storage
// of the backend when it has one.
type pageStore struct {
	storage.Storage

	network bool
	wrapper *offline.WrappingStorage
	updated chan *storage.Page
}

func newPageStore(cfg *config.Config, name string, serializer references.Serializer, log hclog.Logger) (*pageStore, error) {
	cache := local.NewOS(cfg.Offline.Root, log, local.WithSerializer(serializer))

	block, _ := cfg.Backend(name)
	network, err := backends.NewStorage(block, serializer, log)
	if errors.Is(err, references.ErrUnsupported) {
		return &pageStore{Storage: cache}, nil
	}
	if err != nil {
		return nil, err
	}

	updated := make(chan *storage.Page, 1)
	wrapper := offline.New(network, cache, log, offline.WithOnPageUpdated(func(page *storage.Page) {
		select {
		case updated <- page:
		default:
		}
	}))
	return &pageStore{
		Storage: wrapper,
		network: true,
		wrapper: wrapper,
		updated: updated,
	}, nil
}

// close waits for the background refresh and returns the page it stored,
// if any.
func (s *pageStore) close() *storage.Page {
	if s.wrapper == nil {
		return nil
	}
	s.wrapper.Wait()
	_ = s.wrapper.Close()

	select {
	case page := <-s.updated:
		return page
	default:
		return nil
	}
}
