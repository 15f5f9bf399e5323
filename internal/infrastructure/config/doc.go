// Package config handles loading and validating itemvault configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Signing secrets should be set via ITEMVAULT_JWT_ACCESS_SECRET and
//     ITEMVAULT_JWT_REFRESH_SECRET rather than committed to the file
//   - The config file should have restricted permissions (0600)
//   - Access and refresh secrets must differ so one class can never
//     verify as the other
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Storage.Backend)
package config
