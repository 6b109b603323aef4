// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates the global flags, the command and its arguments into an
// app.Config.
package cli
