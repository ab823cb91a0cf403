package main

import (
	"os"

	"github.com/kypria/zeus/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
