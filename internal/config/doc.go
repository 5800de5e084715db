// Package config defines the application configuration structure and
// loading logic. Configuration comes from defaults, an optional YAML file,
// and environment variables, in increasing order of precedence.
package config
