package main

import (
	"os"

	"github.com/errandhub-dev/errandhub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
