package main

import (
	"os"

	"github.com/ncestudy/nce/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
