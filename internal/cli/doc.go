// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates kong commands into the application's internal configuration
// and renders colored summaries of the results.
package cli
