// Package config handles configuration loading, parsing, and validation
// from environment variables (TASKS_ prefix), an optional .env file and an
// optional config.yaml. Values are validated with struct tags before use.
package config
