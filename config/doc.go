// Package config loads client configuration from a YAML file, an
// optional .env file and the process environment using Viper.
//
//	var cfg client.Config
//	err := config.LoadConfig("billing-api", &cfg,
//	    config.WithEnvPrefix("APIKIT"))
//
// Environment variables override file values. APIKIT_HTTP_TIMEOUT maps
// to http.timeout; underscores may also stand for nested keys that
// themselves contain underscores (api.max_error_body_size).
package config
