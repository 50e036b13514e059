// Package config loads typed configuration from environment variables.
//
// Structs are described with caarlos0/env tags and parsed by Load, which
// caches the result per type so every package that asks for the same
// configuration sees the same values. A .env file in the working directory is
// read on first use; LoadEnv reads additional files.
//
//	type Config struct {
//		Store    string        `env:"FLAG_STORE" envDefault:"memory"`
//		CacheTTL time.Duration `env:"FLAG_CACHE_TTL" envDefault:"1h"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
