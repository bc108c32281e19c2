// Package config defines configuration structures for the streamjsonl CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (STREAMJSONL_ prefix)
//   - YAML configuration file
//
// # Structure
//
//	type Config struct {
//	    URL         string
//	    Output      string
//	    Compression string
//	    Progress    bool
//	    Checkpoint  CheckpointConfig
//	    Retry       RetryConfig
//	}
//
//	type RetryConfig struct {
//	    InitialDelay time.Duration
//	    MaxDelay     time.Duration
//	    MaxRetryTime time.Duration
//	}
package config
