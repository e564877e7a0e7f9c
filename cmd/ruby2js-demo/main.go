package main

import (
	"os"

	"github.com/Happy-Ferret/ruby2js/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args, os.Environ(), os.Stdin, os.Stdout, os.Stderr))
}
