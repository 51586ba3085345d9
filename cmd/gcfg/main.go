// Package main implements the gcfg CLI.
// It extracts Python functions and prints, lists or checks their control
// flow graphs.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/l3aro/go-cfg-query/cmd/gcfg/commands"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`gcfg version {{.Version}}
`)

	if err := commands.RootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, commands.ErrCheckFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
