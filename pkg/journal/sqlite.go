// Package journal persists optimization run history to SQLite, so finished
// runs can be inspected and compared after the process exits.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/prompteng/teleprompt/pkg/optimizers"
)

// SQLiteJournal implements optimizers.Journal on a local SQLite file.
type SQLiteJournal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path and prepares its
// schema.
func Open(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// Writes arrive from a single optimization loop; a small pool suffices.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	j := &SQLiteJournal{db: db}
	if err := j.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set synchronous pragma: %w", err)
	}

	return j, nil
}

func (j *SQLiteJournal) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS rounds (
		run_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		best_score REAL NOT NULL,
		trajectories_sampled INTEGER NOT NULL,
		buckets_actionable INTEGER NOT NULL,
		candidates_produced INTEGER NOT NULL,
		candidates_admitted INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL,
		PRIMARY KEY (run_id, round)
	);

	CREATE TABLE IF NOT EXISTS candidates (
		run_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		variant_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		strategy TEXT NOT NULL,
		score REAL NOT NULL,
		recorded_at INTEGER NOT NULL,
		PRIMARY KEY (run_id, variant_id)
	);

	CREATE INDEX IF NOT EXISTS idx_rounds_run ON rounds(run_id);
	CREATE INDEX IF NOT EXISTS idx_candidates_run ON candidates(run_id, round);
	`

	_, err := j.db.Exec(query)
	return err
}

// RecordRound stores one round summary.
func (j *SQLiteJournal) RecordRound(ctx context.Context, runID string, record optimizers.RoundRecord) error {
	query := `
	INSERT OR REPLACE INTO rounds
		(run_id, round, best_score, trajectories_sampled, buckets_actionable,
		 candidates_produced, candidates_admitted, duration_ns, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query,
		runID, record.Round, record.BestScore, record.TrajectoriesSample,
		record.BucketsActionable, record.CandidatesProduced,
		record.CandidatesAdmitted, int64(record.Duration), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record round: %w", err)
	}
	return nil
}

// RecordCandidate stores one scored candidate.
func (j *SQLiteJournal) RecordCandidate(ctx context.Context, runID string, record optimizers.CandidateRecord) error {
	query := `
	INSERT OR REPLACE INTO candidates
		(run_id, round, variant_id, generation, strategy, score, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query,
		runID, record.Round, record.VariantID, record.Generation,
		record.Strategy, record.Score, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record candidate: %w", err)
	}
	return nil
}

// Rounds returns the stored round history of a run in round order.
func (j *SQLiteJournal) Rounds(ctx context.Context, runID string) ([]optimizers.RoundRecord, error) {
	query := `
	SELECT round, best_score, trajectories_sampled, buckets_actionable,
	       candidates_produced, candidates_admitted, duration_ns
	FROM rounds WHERE run_id = ? ORDER BY round
	`
	rows, err := j.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var records []optimizers.RoundRecord
	for rows.Next() {
		var record optimizers.RoundRecord
		var durationNS int64
		err := rows.Scan(&record.Round, &record.BestScore, &record.TrajectoriesSample,
			&record.BucketsActionable, &record.CandidatesProduced,
			&record.CandidatesAdmitted, &durationNS)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		record.Duration = time.Duration(durationNS)
		records = append(records, record)
	}
	return records, rows.Err()
}

// Candidates returns the stored candidates of a run ordered by round then
// insertion.
func (j *SQLiteJournal) Candidates(ctx context.Context, runID string) ([]optimizers.CandidateRecord, error) {
	query := `
	SELECT round, variant_id, generation, strategy, score
	FROM candidates WHERE run_id = ? ORDER BY round, recorded_at
	`
	rows, err := j.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var records []optimizers.CandidateRecord
	for rows.Next() {
		var record optimizers.CandidateRecord
		err := rows.Scan(&record.Round, &record.VariantID, &record.Generation,
			&record.Strategy, &record.Score)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close releases the underlying database handle.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
