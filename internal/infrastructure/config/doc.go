// Package config handles loading and validating connector configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Credential paths can be set via environment variables for deployments
//     that inject certificates at runtime
//   - The config file should have restricted permissions (0600)
//   - The private key file itself is never read by this package; only its
//     path is carried
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Broker.Host)
package config
