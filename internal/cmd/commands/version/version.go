package version

import (
	"github.com/xwiki-contrib/cristal-go/internal/cmd/base"
	"github.com/xwiki-contrib/cristal-go/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: cristal-ref version

  Print the version of cristal-ref.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output("cristal-ref " + version.FullVersion())
	return 0
}
