// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/querylab/diskstore/core/config"
//
//	type TransportConfig struct {
//		MaxRedirects   int    `env:"S3_MAX_REDIRECTS" envDefault:"10"`
//		RequestLogging bool   `env:"S3_REQUEST_LOGGING" envDefault:"false"`
//		DefaultRegion  string `env:"AWS_DEFAULT_REGION" envDefault:"us-east-1"`
//	}
//
//	func main() {
//		var cfg TransportConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// Each configuration type is loaded only once per process; later calls for
// the same type return the cached value, so concurrent components observe
// identical settings.
package config
