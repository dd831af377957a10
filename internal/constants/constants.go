// Package constants provides centralized constant values used throughout TestMo.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by TestMo for organizing data.
const (
	// TestmoHome is the hidden directory name where TestMo stores all its data.
	// This directory is created in the user's home directory.
	TestmoHome = ".testmo"

	// DataDir is the directory name where the file storage backend keeps its values.
	DataDir = "data"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// SQLiteFileName is the default database file for the sqlite storage backend.
	SQLiteFileName = "testmo.db"
)

// Storage keys for the persisted collections. Each key holds one whole
// collection; there is no partial persistence.
const (
	KeyCases    = "testmo_cases_v1"
	KeySession  = "testmo_user_session"
	KeyUsers    = "testmo_users_db"
	KeySettings = "testmo_project_settings"
	KeyActivity = "testmo_activity_log"
)

// Limits applied to persisted collections.
const (
	// ActivityLogLimit is the number of most recent activity entries kept.
	ActivityLogLimit = 50

	// DefaultMaxValueBytes models the quota of the underlying blob store.
	DefaultMaxValueBytes = 5 << 20

	// DefaultMaxEvidenceBytes caps the size of an attached evidence image.
	DefaultMaxEvidenceBytes = 4 << 20
)

// User directory defaults.
const (
	// AdminUsername is the bootstrap administrator. It can never be deleted.
	AdminUsername = "admin"

	// DefaultBcryptCost is the bcrypt work factor for stored password hashes.
	DefaultBcryptCost = 12
)

// Case and tag conventions.
const (
	// CaseIDPrefix prefixes every generated case identifier.
	CaseIDPrefix = "TC-"

	// TagBacklog marks cases saved from the generator as drafts.
	TagBacklog = "Backlog"

	// TagAlternativeFlow marks cases promoted from a negative flow.
	TagAlternativeFlow = "AlternativeFlow"

	// TagAIVariant marks cases produced by variant generation.
	TagAIVariant = "AI-Variant"

	// CopySuffix is appended to the title of a duplicated case.
	CopySuffix = " (Copy)"
)

// AI collaborator defaults.
const (
	// DefaultAIModel is the Gemini model used when none is configured.
	DefaultAIModel = "gemini-2.5-flash"

	// DefaultAIEndpoint is the Gemini REST base URL.
	DefaultAIEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultAIAPIKeyEnvVar names the environment variable holding the API key.
	DefaultAIAPIKeyEnvVar = "GEMINI_API_KEY"

	// DefaultAITimeout bounds a single AI call including retries.
	DefaultAITimeout = 2 * time.Minute

	// DefaultImportBatchSize is the number of data rows sent per import request.
	DefaultImportBatchSize = 3
)

// Retry configuration defaults for rate-limited AI calls.
const (
	// MaxRetryAttempts is the maximum number of attempts for transient errors.
	MaxRetryAttempts = 5

	// InitialBackoff is the delay before the first retry.
	InitialBackoff = 4 * time.Second

	// MaxBackoff caps the exponential delay.
	MaxBackoff = 60 * time.Second

	// BackoffMultiplier grows the delay between attempts.
	BackoffMultiplier = 2.0

	// BackoffJitter is the upper bound of the random delay added to each wait.
	BackoffJitter = time.Second
)

// LockTimeout is the maximum duration to wait for a storage file lock.
const LockTimeout = 5 * time.Second
