// Package cmd implements the command-line interface of dSer.
//
// The package is organized into several subpackages:
//
//   - sample: Serializes sample readings with the configured backend, compression and framing
//   - inspect: Prints the value tree of serialized payloads
//   - perf: Benchmarks every backend and compression codec
//   - util: Shared utilities for flag handling, configuration and the payload pipeline (internal use)
//
// See dser -help for a list of all commands.
package cmd
