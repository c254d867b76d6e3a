package main

import (
	"os"

	"github.com/Hell1213/Oss-Dev/internal/interface/cli"
)

func main() {
	if err := cli.NewRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
