// Command imdrift renders, inspects and validates immediate-mode UI
// projects.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/immediate/cmd/imdrift/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
