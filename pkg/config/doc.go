// Package config loads typed configuration structs from environment
// variables (with optional .env support for local development).
//
// Declare configuration as a struct with env tags and load it once:
//
//	type Config struct {
//		DSNTemplate string `env:"TENANCY_TENANT_DSN_TEMPLATE"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Values are cached per struct type, so independent components loading the
// same type observe identical configuration.
package config
