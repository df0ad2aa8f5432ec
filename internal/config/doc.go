// Package config loads the vcfo service configuration.
//
// Values are read from environment variables first and then merged with an
// optional YAML file. Environment variables always win over the file.
//
// # Environment Variables
//
// All variables are prefixed with VCFO_:
//
//	VCFO_SERVER_PORT=8080
//	VCFO_LOGGING_LEVEL=debug
//	VCFO_PATHS_DATA_DIR=/var/lib/vcfo
//	VCFO_INGEST_MAX_UPLOAD_BYTES=10485760
//	VCFO_INGEST_STORE_BACKEND=file
//
// # Configuration File
//
// The first of config.yaml, configs/config.yaml or ../configs/config.yaml
// that exists is loaded. VCFO_CONFIG_FILE overrides the search.
package config
