package config

import (
	_ "embed"
)

//go:embed glimmer.yaml
var defaultConfig []byte

// Default returns the stock glimmer.yaml written by `glimmer generate-config`.
func Default() []byte {
	return defaultConfig
}
