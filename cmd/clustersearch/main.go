// Command clustersearch runs batch clustering experiments: configuration
// searches, repeated runs and multi-criteria ranking studies over a single
// dataset, writing every result to delimited files.
package main

import (
	"context"
	"fmt"
	"os"
)

// version is reported in trace resources.
const version = "0.1.0"

func main() {
	if err := newCLI().Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
