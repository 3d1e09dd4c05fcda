// Package catalog persists extraction runs to a SQLite database:
// per-run metadata, object outcomes, produced artifacts with content
// hashes, and compliance findings. The catalog is optional; extraction
// works without one.
package catalog

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/blake3"

	"github.com/openrip/openrip/internal/bundle"
	"github.com/openrip/openrip/internal/compliance"
	"github.com/openrip/openrip/internal/pipeline"
)

// Catalog is a connection to the extraction catalog database.
type Catalog struct {
	db   *sql.DB
	path string
}

// Options configures the catalog connection.
type Options struct {
	// Path to the SQLite database file.
	Path string

	// WALMode enables write-ahead logging for better concurrency.
	WALMode bool

	// BusyTimeout bounds waits on a locked database.
	BusyTimeout time.Duration
}

// DefaultOptions returns the standard connection settings.
func DefaultOptions(path string) *Options {
	return &Options{
		Path:        path,
		WALMode:     true,
		BusyTimeout: 30 * time.Second,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	bundle       TEXT NOT NULL,
	family       TEXT NOT NULL,
	version      INTEGER NOT NULL,
	engine       TEXT NOT NULL,
	risk_score   INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   TEXT NOT NULL,
	finished_at  TEXT
);

CREATE TABLE IF NOT EXISTS objects (
	run_id  TEXT NOT NULL REFERENCES runs(id),
	name    TEXT NOT NULL,
	kind    TEXT NOT NULL,
	error   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS artifacts (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	object_name TEXT NOT NULL,
	name        TEXT NOT NULL,
	media_type  TEXT NOT NULL,
	size        INTEGER NOT NULL,
	blake3      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS findings (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	rule     TEXT NOT NULL,
	severity TEXT NOT NULL,
	object   TEXT NOT NULL DEFAULT '',
	detail   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_objects_run ON objects(run_id);
CREATE INDEX IF NOT EXISTS idx_artifacts_run ON artifacts(run_id);
CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
`

// Open connects to the catalog at the given path, creating the file and
// schema as needed.
func Open(opts *Options) (*Catalog, error) {
	if opts == nil || opts.Path == "" {
		return nil, fmt.Errorf("catalog path cannot be empty")
	}

	if dir := filepath.Dir(opts.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", connectionString(opts))
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", opts.Path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("testing catalog connection: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	return &Catalog{db: db, path: opts.Path}, nil
}

func connectionString(opts *Options) string {
	pragmas := []string{"foreign_keys=ON", "synchronous=NORMAL"}
	if opts.WALMode {
		pragmas = append(pragmas, "journal_mode=WAL")
	}
	if opts.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout=%d", opts.BusyTimeout.Milliseconds()))
	}
	return opts.Path + "?" + strings.Join(pragmas, "&")
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		return fmt.Errorf("closing catalog: %w", err)
	}
	return nil
}

// BeginRun inserts a run row and returns its generated ID.
func (c *Catalog) BeginRun(ctx context.Context, bundleName string, h *bundle.Header) (string, error) {
	id := uuid.NewString()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO runs (id, bundle, family, version, engine, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, bundleName, h.Family().String(), h.Version, h.EngineVersion,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// RecordReport stores the full outcome of an extract: every object
// result, the artifacts with their BLAKE3 content hashes, and the
// compliance findings.
func (c *Catalog) RecordReport(ctx context.Context, runID string, rep *pipeline.ExtractReport) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting catalog transaction: %w", err)
	}
	defer tx.Rollback()

	for _, res := range rep.Results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO objects (run_id, name, kind, error) VALUES (?, ?, ?, ?)`,
			runID, res.Name, res.Kind.String(), errText); err != nil {
			return fmt.Errorf("recording object %s: %w", res.Name, err)
		}

		for _, art := range res.Artifacts {
			sum := blake3.Sum256(art.Data)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO artifacts (run_id, object_name, name, media_type, size, blake3) VALUES (?, ?, ?, ?, ?, ?)`,
				runID, res.Name, art.Name, art.MediaType, len(art.Data), hex.EncodeToString(sum[:])); err != nil {
				return fmt.Errorf("recording artifact %s: %w", art.Name, err)
			}
		}
	}

	for _, f := range rep.Compliance.Findings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO findings (run_id, rule, severity, object, detail) VALUES (?, ?, ?, ?, ?)`,
			runID, f.Rule, f.Severity.String(), f.Object, f.Detail); err != nil {
			return fmt.Errorf("recording finding %s: %w", f.Rule, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET risk_score = ? WHERE id = ?`,
		rep.Compliance.RiskScore(), runID); err != nil {
		return fmt.Errorf("recording risk score: %w", err)
	}

	return tx.Commit()
}

// FinishRun marks a run finished with the given status.
func (c *Catalog) FinishRun(ctx context.Context, runID, status string) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", runID, err)
	}
	return nil
}

// Run is one catalog row from the runs table.
type Run struct {
	ID         string
	Bundle     string
	Family     string
	Version    uint32
	Engine     string
	RiskScore  int
	Status     string
	StartedAt  string
	FinishedAt string
}

// Runs lists recorded runs, newest first.
func (c *Catalog) Runs(ctx context.Context) ([]Run, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, bundle, family, version, engine, risk_score, status, started_at, COALESCE(finished_at, '')
		 FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Bundle, &r.Family, &r.Version, &r.Engine,
			&r.RiskScore, &r.Status, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Artifact is one catalog row from the artifacts table.
type Artifact struct {
	ObjectName string
	Name       string
	MediaType  string
	Size       int64
	Hash       string
}

// RunArtifacts lists the artifacts recorded for a run.
func (c *Catalog) RunArtifacts(ctx context.Context, runID string) ([]Artifact, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT object_name, name, media_type, size, blake3 FROM artifacts WHERE run_id = ? ORDER BY object_name, name`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts for %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ObjectName, &a.Name, &a.MediaType, &a.Size, &a.Hash); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RunFindings lists the compliance findings recorded for a run.
func (c *Catalog) RunFindings(ctx context.Context, runID string) ([]compliance.Finding, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT rule, severity, object, detail FROM findings WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing findings for %s: %w", runID, err)
	}
	defer rows.Close()

	var out []compliance.Finding
	for rows.Next() {
		var f compliance.Finding
		var severity string
		if err := rows.Scan(&f.Rule, &severity, &f.Object, &f.Detail); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		if severity == compliance.SeverityBlocking.String() {
			f.Severity = compliance.SeverityBlocking
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
