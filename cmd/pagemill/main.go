package main

import (
	"os"

	"github.com/pagemill/pagemill/cmd/pagemill/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
