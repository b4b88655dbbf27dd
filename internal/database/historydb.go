package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/scrapesynth/internal/model"
)

// FileName is the database file name inside the data directory.
const FileName = "history.db"

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB stores synthesis runs.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and file when missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found at %s (run a synthesis first)", dbPath)
	} else if err != nil {
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		instruction TEXT NOT NULL,
		sources_json TEXT NOT NULL,
		game_mode INTEGER NOT NULL DEFAULT 0,
		time_travel INTEGER NOT NULL DEFAULT 0,
		target_year INTEGER NOT NULL DEFAULT 0,
		provider TEXT,
		model TEXT,
		attempts_json TEXT,
		outcomes_json TEXT,
		ok INTEGER NOT NULL DEFAULT 0,
		result_text TEXT,
		error_text TEXT,
		prompt_digest TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Run is one stored synthesis run.
type Run struct {
	ID           int64
	RunID        string
	CreatedAt    time.Time
	Instruction  string
	Sources      []string
	Modes        model.ModeFlags
	Provider     string
	Model        string
	Attempts     []model.ModelAttempt
	Outcomes     []model.SourceOutcome
	OK           bool
	Result       string
	Error        string
	PromptDigest string
}

// RunSummary is the listing view of a run.
type RunSummary struct {
	RunID       string
	CreatedAt   time.Time
	Instruction string
	SourceCount int
	Model       string
	OK          bool
}

// Digest returns the hex SHA3-256 digest of a prompt.
func Digest(prompt string) string {
	sum := sha3.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// SaveRun inserts run. CreatedAt defaults to now. Extracted records are not
// stored with the outcomes.
func (h *HistoryDB) SaveRun(ctx context.Context, run *Run) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	sourcesJSON, err := json.Marshal(run.Sources)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize sources: %w", err)
	}
	attemptsJSON, err := json.Marshal(run.Attempts)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize attempts: %w", err)
	}
	outcomes := make([]model.SourceOutcome, len(run.Outcomes))
	for i, o := range run.Outcomes {
		o.Record = nil
		outcomes[i] = o
	}
	outcomesJSON, err := json.Marshal(outcomes)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize outcomes: %w", err)
	}

	query := `
	INSERT INTO runs (run_id, created_at, instruction, sources_json, game_mode, time_travel, target_year,
		provider, model, attempts_json, outcomes_json, ok, result_text, error_text, prompt_digest)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := h.db.ExecContext(ctx, query,
		run.RunID,
		formatTimestamp(run.CreatedAt),
		run.Instruction,
		string(sourcesJSON),
		boolToInt(run.Modes.GameMode),
		boolToInt(run.Modes.TimeTravel),
		run.Modes.TargetYear,
		run.Provider,
		run.Model,
		string(attemptsJSON),
		string(outcomesJSON),
		boolToInt(run.OK),
		run.Result,
		run.Error,
		run.PromptDigest,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	run.ID = id
	return id, nil
}

// GetRun returns the run with the given run id, or ErrRunNotFound.
func (h *HistoryDB) GetRun(ctx context.Context, runID string) (*Run, error) {
	query := `
	SELECT id, run_id, created_at, instruction, sources_json, game_mode, time_travel, target_year,
		provider, model, attempts_json, outcomes_json, ok, result_text, error_text, prompt_digest
	FROM runs
	WHERE run_id = ?
	`

	var (
		run                    Run
		createdAt, sourcesJSON string
		gameMode, timeTravel   int
		ok                     int
		provider, modelName    sql.NullString
		attemptsJSON           sql.NullString
		outcomesJSON           sql.NullString
		resultText, errorText  sql.NullString
		promptDigest           sql.NullString
	)
	err := h.db.QueryRowContext(ctx, query, runID).Scan(
		&run.ID,
		&run.RunID,
		&createdAt,
		&run.Instruction,
		&sourcesJSON,
		&gameMode,
		&timeTravel,
		&run.Modes.TargetYear,
		&provider,
		&modelName,
		&attemptsJSON,
		&outcomesJSON,
		&ok,
		&resultText,
		&errorText,
		&promptDigest,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.CreatedAt = parseTimestamp(createdAt)
	run.Modes.GameMode = gameMode != 0
	run.Modes.TimeTravel = timeTravel != 0
	run.OK = ok != 0
	run.Provider = provider.String
	run.Model = modelName.String
	run.Result = resultText.String
	run.Error = errorText.String
	run.PromptDigest = promptDigest.String

	if err := json.Unmarshal([]byte(sourcesJSON), &run.Sources); err != nil {
		return nil, fmt.Errorf("failed to parse sources: %w", err)
	}
	if attemptsJSON.Valid && attemptsJSON.String != "" {
		if err := json.Unmarshal([]byte(attemptsJSON.String), &run.Attempts); err != nil {
			return nil, fmt.Errorf("failed to parse attempts: %w", err)
		}
	}
	if outcomesJSON.Valid && outcomesJSON.String != "" {
		if err := json.Unmarshal([]byte(outcomesJSON.String), &run.Outcomes); err != nil {
			return nil, fmt.Errorf("failed to parse outcomes: %w", err)
		}
	}

	return &run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT run_id, created_at, instruction, sources_json, model, ok
	FROM runs
	ORDER BY created_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var (
			s                      RunSummary
			createdAt, sourcesJSON string
			modelName              sql.NullString
			ok                     int
		)
		if err := rows.Scan(&s.RunID, &createdAt, &s.Instruction, &sourcesJSON, &modelName, &ok); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.CreatedAt = parseTimestamp(createdAt)
		s.Model = modelName.String
		s.OK = ok != 0

		var sources []string
		if err := json.Unmarshal([]byte(sourcesJSON), &sources); err == nil {
			s.SourceCount = len(sources)
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampLayout is the stored created_at format. It is fixed width so
// that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp renders t in UTC using timestampLayout.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats are tried in order by parseTimestamp.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
