package main

import (
	"fmt"
	"os"

	"pipegate/cmd/pipegate/commands"
	"pipegate/cmd/pipegate/internal/clierr"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}
