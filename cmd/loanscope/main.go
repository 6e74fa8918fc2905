package main

import (
	"os"

	"github.com/dmaher/loanscope/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
