package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/xwiki-contrib/cristal-go/internal/cmd/base"
	"github.com/xwiki-contrib/cristal-go/internal/cmd/commands/reference"
	"github.com/xwiki-contrib/cristal-go/internal/cmd/commands/version"
)

// Commands is the mapping of all available cristal-ref commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := &base.Command{
		Log: log,
		UI:  ui,
	}

	Commands = map[string]cli.CommandFactory{
		"cache": func() (cli.Command, error) {
			return &reference.CacheCommand{Command: b}, nil
		},
		"convert": func() (cli.Command, error) {
			return &reference.ConvertCommand{Command: b}, nil
		},
		"parse": func() (cli.Command, error) {
			return &reference.ParseCommand{Command: b}, nil
		},
		"resolve": func() (cli.Command, error) {
			return &reference.ResolveCommand{Command: b}, nil
		},
		"title": func() (cli.Command, error) {
			return &reference.TitleCommand{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
