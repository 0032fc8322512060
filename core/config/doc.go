// Package config provides configuration management for the hardware manager.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults come from the `default` struct tags of each section.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Server: console HTTP settings (host, port, API key, request timeout)
//   - Remote: inventory service URL, timeout and retry budget
//   - Database: local session database (sqlite file or MySQL)
//   - Storage: S3/MinIO credentials and bucket for inventory snapshots
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Remote.BaseURL)
package config
