// Command pdf-ops runs PDF operations against a processing backend from
// the terminal.
package main

import "github.com/a3tai/mcp-pdf-ops/internal/cli"

// Version information (set by build flags)
var version = "dev"

func main() {
	cli.Execute(version)
}
