package main

import (
	"os"

	"github.com/migmoroni/vaudio/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
