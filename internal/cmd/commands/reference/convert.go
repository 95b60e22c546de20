package reference

import (
	"flag"
	"fmt"

	"github.com/xwiki-contrib/cristal-go/internal/cmd/base"
	"github.com/xwiki-contrib/cristal-go/pkg/references"
)

type ConvertCommand struct {
	*base.Command
	contextFlags

	flagFrom   string
	flagTo     string
	flagConfig string
}

func (c *ConvertCommand) Synopsis() string {
	return "Rewrite a reference in the grammar of another backend"
}

func (c *ConvertCommand) Help() string {
	return `Usage: cristal-ref convert -from TYPE -to TYPE [options] REFERENCE

  Parse a reference with the grammar of one backend and serialize it with
  the grammar of another one.` +
		c.Flags().Help()
}

func (c *ConvertCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(
		flag.NewFlagSet("convert", flag.ContinueOnError))

	f.StringVar(
		&c.flagFrom, "from", "", "(Required) Backend type of the input reference.",
	)
	f.StringVar(
		&c.flagTo, "to", "", "(Required) Backend type of the output reference.",
	)
	f.StringVar(
		&c.flagConfig, "config", "", "Path to the configuration file.",
	)
	c.contextFlags.register(f)

	return f
}

func (c *ConvertCommand) Run(args []string) int {
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
	if c.flagFrom == "" || c.flagTo == "" {
		ui.Error("from and to flags are required")
		return 1
	}

	from, err := references.ParseBackendType(c.flagFrom)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	to, err := references.ParseBackendType(c.flagTo)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	registry, err := loadRegistry(c.flagConfig, logger)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading backends: %v", err))
		return 1
	}
	parser, err := registry.Parser(from)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	serializer, err := registry.Serializer(to)
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

	serialized, err := serializer.Serialize(ref)
	if err != nil {
		ui.Error(fmt.Sprintf("error serializing reference: %v", err))
		return 1
	}

	ui.Output(serialized)
	return 0
}
