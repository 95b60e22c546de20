package main

import (
	"os"

	"github.com/xwiki-contrib/cristal-go/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
