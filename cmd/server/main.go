// Command server runs the lunch HTTP server without the management CLI.
// Container entrypoints use this; everything else goes through cmd/lunch.
package main

import (
	"fmt"
	"os"

	"github.com/sheapwilliams/lunch/internal/server"

	_ "github.com/sheapwilliams/lunch/database/migrations"
)

func main() {
	if err := server.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
