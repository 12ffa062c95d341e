// Package config loads runtime configuration for the ledger shell.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   data directory holding saves/ and temp/
//	-v string   log level: debug, info, warn or error
//
// # JSON schema
//
//	{
//	  "data_dir": "/home/me/.ledgerkeeper",
//	  "log_level": "info"
//	}
//
// Keys missing from the JSON file leave the default in place.
package config
