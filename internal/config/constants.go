package config

import "time"

// Application constants
const (
	AppName    = "vcfo"
	AppVersion = "1.0.0"

	// Upload limits
	DefaultMaxUploadBytes = 10 << 20
	DefaultTopDaysLimit   = 10
	DefaultPreviewRows    = 10

	// Store backends
	StoreBackendMemory = "memory"
	StoreBackendFile   = "file"

	DefaultDataDir = "data"
	DefaultLogsDir = "logs"

	DefaultHTTPTimeout   = 30 * time.Second
	DefaultRenderTimeout = 60 * time.Second
)
