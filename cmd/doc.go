// Package cmd implements the command-line interface of rwKV. It provides a
// command to run the API server and commands to talk to a running server.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the API server
//   - api: Client commands (register, login, articles, tags, perf, ...)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See rwkv -help for a list of all commands.
package cmd
