// Package driving provides interfaces consumed by transport adapters
// (primary/inbound ports): the MCP server and the CLI call the core
// exclusively through these.
package driving
