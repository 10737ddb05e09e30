package main

import (
	"os"

	"github.com/LeKyks/pyassist/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
