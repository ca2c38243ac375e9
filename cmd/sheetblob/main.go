// Command sheetblob loads, inspects and exports binary sheet config blobs.
package main

import (
	"os"

	"github.com/arkilian/sheetblob/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
