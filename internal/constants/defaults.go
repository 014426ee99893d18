// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines default values and limits used throughout the application.
// These constants provide sensible defaults for configuration settings and establish
// boundaries for resource usage. Changes to these values may significantly impact
// application behavior and the portability of exported snapshots.
package constants

// Default Configuration Values define fallback settings when not specified in configuration.
// These constants provide sensible defaults for core application settings.
const (
	// DefaultStorePath is the default location of the local sqlite store.
	DefaultStorePath = "data/quipvault.db"

	// DefaultStoreBusyTimeoutMs is the sqlite busy timeout applied to the store connection.
	DefaultStoreBusyTimeoutMs = 5000

	// DefaultStoreMaxConnections is the default maximum number of store connections.
	DefaultStoreMaxConnections = 4

	// DefaultExportDir is the default directory for generated snapshot files.
	DefaultExportDir = "exports"

	// DefaultLogLevel is the default logging verbosity level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default logging output format.
	DefaultLogFormat = "json"
)

// Environment Types define the recognized application running environments.
// These constants are used to adjust behavior based on the deployment environment.
const (
	// EnvDevelopment identifies a development environment with debugging features enabled.
	EnvDevelopment = "development"

	// EnvTesting identifies a testing environment for automated tests.
	EnvTesting = "testing"

	// EnvProduction identifies a production environment with optimized settings.
	EnvProduction = "production"
)

// Transfer Defaults define fallback values for export/import behavior.
const (
	// DefaultMaxErrorsAllowed is the default per-record error budget for partial imports.
	DefaultMaxErrorsAllowed = 10

	// DefaultProgressBufferSize is the default capacity of progress channels returned
	// by the transfer manager. A buffered channel lets pipelines advance while a slow
	// caller drains updates.
	DefaultProgressBufferSize = 32

	// MaxSnapshotSize is the maximum size in bytes accepted for an incoming snapshot file.
	// This prevents excessive resource consumption when parsing untrusted input.
	MaxSnapshotSize = 64 * 1024 * 1024 // 64MB
)

// Encryption Parameters define the key derivation settings for password-protected
// snapshots. These values are part of the wire format: changing them breaks the
// ability to open previously exported encrypted snapshots.
const (
	// SnapshotKeyIterations is the PBKDF2 iteration count for snapshot encryption keys.
	SnapshotKeyIterations = 210000

	// SnapshotKeyLength is the derived key length in bytes (AES-256).
	SnapshotKeyLength = 32

	// SnapshotSaltLength is the length in bytes of the random key derivation salt.
	SnapshotSaltLength = 16
)
