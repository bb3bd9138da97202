// Package config handles loading and validating actioncore configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with ACTIONCORE_* environment variables
//   - Validation of required fields, reporting every problem at once
//   - Default value handling
//
// Broker passwords and the InfluxDB token should come from the environment
// rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/actioncore.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ticker := time.NewTicker(cfg.TickInterval())
package config
