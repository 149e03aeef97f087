// Command docdex serves a documentation retrieval service over MCP and
// offers corpus search, grounded answers and update tooling from the
// command line.
package main

import "github.com/custodia-labs/docdex/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
