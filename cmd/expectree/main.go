package main

import (
	"os"

	"github.com/solatis/expectree/cmd/expectree/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
