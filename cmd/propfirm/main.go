package main

import (
	"os"

	"github.com/rustyeddy/propfirm/cmd/propfirm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
