package reference

import (
	"flag"
	"fmt"

	"github.com/xwiki-contrib/cristal-go/internal/cmd/base"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

type ParseCommand struct {
	*base.Command
	contextFlags

	flagBackend string
	flagConfig  string
}

func (c *ParseCommand) Synopsis() string {
	return "Parse a reference into its structured form"
}

func (c *ParseCommand) Help() string {
	return `Usage: cristal-ref parse [options] REFERENCE

  Parse a reference written in the grammar of a backend and print its
  structured form. No network request is made.` +
		c.Flags().Help()
}

func (c *ParseCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(
		flag.NewFlagSet("parse", flag.ContinueOnError))

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

func (c *ParseCommand) Run(args []string) int {
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
	parser, err := registry.Parser(backendType)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	opts, err := c.parseOptions(parser, logger)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	ref, err := parser.Parse(flags.Arg(0), opts)
	if err != nil {
		ui.Error(fmt.Sprintf("error parsing reference: %v", err))
		return 1
	}

	ui.Output(ref.String())
	return 0
}
