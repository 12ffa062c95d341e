// Package cli provides the interactive ledgerkeeper shell.
//
// Each input line is dispatched through a google/subcommands Commander, so
// every command has its own flag set and help text. Errors are classified once
// here: expected ones (wrong password, duplicate names, missing save) are shown
// to the user; anything else is logged and the open save is force closed.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits, the
// input ends or ctx is cancelled.
package cli
