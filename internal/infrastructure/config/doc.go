// Package config handles loading and validating Gatelink Core
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (GATELINK_*)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (WiFi passphrase, broker password, InfluxDB token)
//     should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Network.SSID)
package config
