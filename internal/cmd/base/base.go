// Package base holds what every cristal-ref command shares.
package base

import (
	"flag"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by every command.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui
}

// FlagSet wraps a flag.FlagSet to render its flags in command help.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f. Parse errors are reported through the returned error
// rather than printed.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.SetOutput(io.Discard)
	return &FlagSet{FlagSet: f}
}

// Help returns the flag defaults formatted for a help text.
func (f *FlagSet) Help() string {
	var sb strings.Builder
	f.SetOutput(&sb)
	f.PrintDefaults()
	f.SetOutput(io.Discard)

	if sb.Len() == 0 {
		return ""
	}
	return "\n\nOptions:\n\n" + sb.String()
}
