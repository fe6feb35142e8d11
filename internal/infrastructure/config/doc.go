// Package config handles loading and validating homesim configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with HOMESIM_* environment variables
//   - Validation of required fields
//   - Default value handling, including the default device set
//
// Sensitive values (MQTT password, InfluxDB token) should be set via
// environment variables rather than committed to the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Simulation.Mode)
package config
