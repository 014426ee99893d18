// Package quipvault is the embedding surface of the QuipVault data interchange
// subsystem: snapshot export and import of locally stored humorous content,
// with compliance analysis, import preview, and failure recovery guidance.
//
// The subsystem has no network or command-line surface of its own; the hosting
// application opens a Client and drives operations through the transfer Manager.
package quipvault

import (
	"github.com/quipvault/quipvault/internal/config"
	"github.com/quipvault/quipvault/internal/models"
	"github.com/quipvault/quipvault/internal/recovery"
	"github.com/quipvault/quipvault/internal/store"
	"github.com/quipvault/quipvault/internal/transfer"
	"github.com/quipvault/quipvault/internal/utils"
)

// Aliases exposing the subsystem's types to embedding applications.
type (
	// Config is the full application configuration.
	Config = config.AppConfig

	// Manager is the interchange entry point: export, preview, import, cancel.
	Manager = transfer.Manager

	// LocalStore is the persistence contract the pipelines operate on.
	LocalStore = store.LocalStore

	// ExportOptions selects what an export includes.
	ExportOptions = models.ExportOptions

	// ImportOptions configures how a confirmed import is applied.
	ImportOptions = models.ImportOptions

	// ImportStrategy selects merge or replace reconciliation.
	ImportStrategy = models.ImportStrategy

	// ImportPreview is the non-committing summary of what an import would change.
	ImportPreview = models.ImportPreview

	// OperationProgress is a single update from a running operation.
	OperationProgress = models.OperationProgress

	// ExportResult summarizes a completed export.
	ExportResult = models.ExportResult

	// ImportResult summarizes a completed import.
	ImportResult = models.ImportResult

	// Snapshot is the versioned transfer object.
	Snapshot = models.Snapshot

	// ContentRecord is a single stored item.
	ContentRecord = models.ContentRecord

	// PrivacyNotice summarizes what an export will include.
	PrivacyNotice = models.PrivacyNotice

	// ComplianceIssue is a single pre-export privacy finding.
	ComplianceIssue = models.ComplianceIssue

	// TransferError is the structured failure type every operation surfaces.
	TransferError = utils.TransferError

	// RecoveryInfo is the classified summary of a failure.
	RecoveryInfo = recovery.ErrorInfo

	// RecoveryOption is a single recovery choice to present to the user.
	RecoveryOption = recovery.Option
)

// Re-exported reconciliation strategies.
const (
	StrategyMerge   = models.StrategyMerge
	StrategyReplace = models.StrategyReplace
)

// ErrOperationInProgress is returned when a second committing operation is
// requested while one is running.
var ErrOperationInProgress = transfer.ErrOperationInProgress

// DefaultImportOptions returns merge options with duplicate skipping, favorite
// preservation, and the given error budget.
func DefaultImportOptions(maxErrors int) ImportOptions {
	return models.DefaultImportOptions(maxErrors)
}

// ClassifyError maps an operation failure onto its recovery classification.
func ClassifyError(err error) RecoveryInfo {
	return recovery.Classify(err)
}

// RecoveryOptions derives the recovery menu for a failed operation.
func RecoveryOptions(err error, operation string, allowPartialImport bool) []RecoveryOption {
	return recovery.Options(err, recovery.OperationContext{
		Operation:          operation,
		AllowPartialImport: allowPartialImport,
	})
}

// Client owns the subsystem's resources: configuration, the local store, and
// the transfer manager.
type Client struct {
	cfg     *Config
	pool    *store.Pool
	st      LocalStore
	manager *Manager
}

// Open loads configuration from the given path (falling back to defaults and
// environment variables), initializes logging, opens the local sqlite store,
// and wires the transfer manager.
func Open(configPath string) (*Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	utils.InitLogger(cfg)

	pool, err := store.Connect(cfg)
	if err != nil {
		return nil, err
	}

	st := store.NewSQLiteStore(pool)
	manager, err := transfer.NewManager(cfg, st)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Client{cfg: cfg, pool: pool, st: st, manager: manager}, nil
}

// OpenWithStore wires the subsystem over a caller-provided store. Intended for
// hosts that own their persistence and for tests.
func OpenWithStore(cfg *Config, st LocalStore) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	manager, err := transfer.NewManager(cfg, st)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, st: st, manager: manager}, nil
}

// Transfer returns the interchange manager.
func (c *Client) Transfer() *Manager {
	return c.manager
}

// Store returns the local store the client operates on.
func (c *Client) Store() LocalStore {
	return c.st
}

// Config returns the loaded configuration.
func (c *Client) Config() *Config {
	return c.cfg
}

// Close releases the client's resources. Safe on a client opened with
// OpenWithStore, where there is no owned connection pool.
func (c *Client) Close() error {
	if c.pool == nil {
		return nil
	}
	return c.pool.Close()
}
