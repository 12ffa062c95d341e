package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/ledgerkeeper/internal/flagx"
)

// parseJson overlays Config with values loaded from the JSON file named by -c
// or -config. Without either flag it does nothing. Empty or missing keys keep
// the current values.
//
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc Config
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
