package main

import (
	"os"

	"github.com/herrhippopotamus/trading-rustix/cmd/rustixd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
