package reference

import (
	"flag"
	"fmt"

	"github.com/xwiki-contrib/cristal-go/internal/cmd/base"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

type TitleCommand struct {
	*base.Command
	contextFlags

	flagBackend string
	flagConfig  string
}

func (c *TitleCommand) Synopsis() string {
	return "Print the display title of a reference"
}

func (c *TitleCommand) Help() string {
	return `Usage: cristal-ref title [options] REFERENCE

  Parse a reference and print the title a backend derives from it.` +
		c.Flags().Help()
}

func (c *TitleCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(
		flag.NewFlagSet("title", flag.ContinueOnError))

	f.StringVar(
		&c.flagBackend, "backend", string(references.BackendTypeXWiki),
		"Backend type whose grammar the reference is written in.",
	)
	f.StringVar(
		&c.flagConfig, "config", "", "Path to the configuration file.",
	)
	c.contextFlags.register(f)

	return f
}

func (c *TitleCommand) Run(args []string) int {
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

	backendType, err := references.ParseBackendType(c.flagBackend)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	registry, err := loadRegistry(c.flagConfig, logger)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading backends: %v", err))
		return 1
	}
	backend, err := registry.Backend(backendType)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	opts, err := c.parseOptions(backend.Parser, logger)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	ref, err := backend.Parser.Parse(flags.Arg(0), opts)
	if err != nil {
		ui.Error(fmt.Sprintf("error parsing reference: %v", err))
		return 1
	}

	ui.Output(backend.Handler.GetTitle(ref))
	return 0
}
