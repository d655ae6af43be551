package main

import (
	"os"

	"github.com/cardex-protocol/cardex/cmd/cardexd/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
