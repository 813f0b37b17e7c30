// Package config provides configuration management for the CSV reconciler.
//
// It utilizes Viper for loading configuration from a .env file, environment
// variables and an optional YAML or JSON config file. Defaults come from the
// `default` struct tags of each partial configuration.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Reconcile: folders, matching rule, separator, header flag, mode, dedupe, parallelism
//   - Storage: optional S3/MinIO publishing of outputs
//   - Log: level, format and file sink
//
// Environment variables map to nested keys by replacing dots with
// underscores, e.g. RECONCILE_MATCHING_FIELDS=Id,Name or LOG_LEVEL=debug.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".", "reconcile.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
