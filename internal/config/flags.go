package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/ledgerkeeper/internal/flagx"
)

// parseFlags populates Config from -d and -v. Other arguments are filtered
// out with flagx.FilterArgs so -c/-config do not trip the flag set.
// An unknown log level panics, like any other malformed flag.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
	if _, err := cfg.SlogLevel(); err != nil {
		panic(err)
	}
}
