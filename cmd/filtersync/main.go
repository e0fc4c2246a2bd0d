// filtersync keeps structured filter objects and URL query strings in sync.
package main

import (
	"os"

	"github.com/hupe1980/filtersync/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
