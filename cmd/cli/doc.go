// Package cli constructs the svn2git command-line interface. It wires the Cobra command
// hierarchy with the layered configuration loader and structured logging, and registers the
// import and rebase commands.
package cli
