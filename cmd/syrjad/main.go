package main

import (
	"os"

	"github.com/syrja/rendezvous/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
