// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv (optional .env files) and
// github.com/caarlos0/env/v11 (struct tag parsing). Each package that needs
// settings declares its own struct with `env` tags, and the binary loads them:
//
//	var broker broker.Settings
//	config.MustLoad(&broker)
//
// Parsed values are cached per type, so repeated loads are cheap and always
// agree. Tests that change the environment call ResetCache first.
package config
