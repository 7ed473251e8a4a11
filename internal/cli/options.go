package cli

import (
	"fmt"
	"strings"

	"github.com/aretw0/mrt/pkg/config"
)

// Presentation modes of a local session.
const (
	ModeTUI  = "tui"
	ModeText = "text"
	ModeJSON = "json"
)

// Store backends of a local session.
const (
	StoreNone   = ""
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Config config.Config

	ParticipantID string
	SessionCode   string

	// Mode selects the presentation: tui (raw keys), text (line input) or json (NDJSON).
	Mode string

	// SessionID resumes or names a persisted session. Requires Store.
	SessionID string
	Fresh     bool

	Backends BackendOptions

	// Output is where trial records are exported when the run ends.
	// Empty picks a name in the working directory; "-" disables export.
	Output string

	Debug    bool
	LogLevel string
}

// Validate checks option combinations.
func (o RunOptions) Validate() error {
	switch o.Mode {
	case ModeTUI, ModeText, ModeJSON:
	default:
		return fmt.Errorf("unknown mode %q (tui, text, json)", o.Mode)
	}
	if err := o.Backends.Validate(); err != nil {
		return err
	}
	if o.SessionID != "" && o.Backends.Store == StoreNone {
		return fmt.Errorf("--session requires --store")
	}
	return o.Config.Validate()
}

// BackendOptions selects where sessions and results are kept.
type BackendOptions struct {
	Store     string
	StoreDir  string
	SQLiteDSN string
	RedisURL  string
	// StoreKey seals stored sessions with AES-256-GCM (64 hex chars or base64).
	StoreKey string
	// ResultsLog appends every submission envelope to a JSONL file.
	ResultsLog string
}

// Validate checks the store selection.
func (b BackendOptions) Validate() error {
	switch strings.ToLower(b.Store) {
	case StoreNone, StoreFile, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q (file, sqlite, redis)", b.Store)
	}
	if strings.EqualFold(b.Store, StoreRedis) && b.RedisURL == "" {
		return fmt.Errorf("--store redis requires --redis-url")
	}
	return nil
}

// quiet reports whether human-oriented messages must stay off stdout.
func (o RunOptions) quiet() bool {
	return o.Mode == ModeJSON
}
