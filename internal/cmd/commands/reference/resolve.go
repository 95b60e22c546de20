package reference

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xwiki-contrib/cristal-go/internal/cmd/base"
)

type ResolveCommand struct {
	*base.Command
	contextFlags

	flagBackend string
	flagConfig  string
}

func (c *ResolveCommand) Synopsis() string {
	return "Resolve a reference against a configured backend"
}

func (c *ResolveCommand) Help() string {
	return `Usage: cristal-ref resolve -config FILE -backend NAME [options] REFERENCE

  Resolve a reference with a backend from the configuration file. File URLs
  and file id attachments of a Nextcloud backend are looked up on the
  server. Prints the structured reference and its canonical form.` +
		c.Flags().Help()
}

func (c *ResolveCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(
		flag.NewFlagSet("resolve", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to the configuration file.",
	)
	f.StringVar(
		&c.flagBackend, "backend", "", "(Required) Name of the configured backend.",
	)
	c.contextFlags.register(f)

	return f
}

func (c *ResolveCommand) Run(args []string) int {
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

	_, backend, err := loadBackend(c.flagConfig, c.flagBackend, logger)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading backend: %v", err))
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

	serialized, err := backend.Serializer.Serialize(ref)
	if err != nil {
		ui.Error(fmt.Sprintf("error serializing reference: %v", err))
		return 1
	}

	ui.Output(ref.String())
	ui.Output(serialized)
	return 0
}
