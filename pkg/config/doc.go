// Package config loads typed configuration from environment variables.
//
// It combines github.com/joho/godotenv (optional .env file) with
// github.com/caarlos0/env/v11 (struct tags). Each config type is parsed once
// and cached. Structs implementing Validator get a second check after
// parsing, for rules such as "either a TOTP secret or a phone number".
//
//	type Config struct {
//		APIKey    string `env:"BROWSER_HOST_API_KEY,required"`
//		ProjectID string `env:"BROWSER_HOST_PROJECT_ID,required"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		// missing required values: abort startup
//	}
package config
