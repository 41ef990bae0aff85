package main

import (
	"log"
	"os"

	"github.com/spf13/afero"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr, afero.NewOsFs()); err != nil {
		log.Fatalf("novapool: %v", err)
	}
}
