package main

import (
	"os"

	"github.com/dmitrymomot/localesync/cmd/localesync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
