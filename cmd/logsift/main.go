// logsift - log parsing, correlation and reporting tool
//
// logsift turns timestamped, multi-line application logs into structured
// entries, matches API requests to their responses and aggregates exceptions.
package main

import (
	"os"

	"github.com/ccollicutt/logsift/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
