// Package archive keeps timestamped copies of the ledger document in
// SQLite. The main JSON file is the source of truth; the archive exists
// so an operator can recover from a bad mutation or a lost file.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"barbapro/internal/core"
	"barbapro/internal/log"

	_ "modernc.org/sqlite"
)

// Archive stores ledger snapshots with a capped retention.
type Archive struct {
	db        *sql.DB
	retention int
	logger    *log.Logger
}

// Info describes one stored snapshot.
type Info struct {
	ID      int64     `json:"id"`
	TakenAt time.Time `json:"takenAt"`
	Bytes   int       `json:"bytes"`
}

// New opens (creating if needed) the archive database and applies
// migrations. retention is the number of snapshots kept; older ones are
// pruned after each insert.
func New(dbPath string, retention int, logger *log.Logger) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive database: %w", err)
	}

	return &Archive{
		db:        db,
		retention: retention,
		logger:    logger.WithComponent(log.ComponentArchive),
	}, nil
}

func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Snapshot stores a copy of the document and prunes beyond retention.
func (a *Archive) Snapshot(ctx context.Context, ledger *core.Ledger) (int64, error) {
	document, err := json.Marshal(ledger)
	if err != nil {
		return 0, fmt.Errorf("marshal ledger: %w", err)
	}
	takenAt := time.Now().UTC().Format(time.RFC3339)

	result, err := a.db.ExecContext(ctx,
		`INSERT INTO snapshots (taken_at, document) VALUES (?, ?)`,
		takenAt, string(document))
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}

	if err := a.prune(ctx); err != nil {
		a.logger.Warn("Snapshot prune failed",
			log.FieldOperation, log.OpPrune,
			log.FieldError, err.Error())
	}

	a.logger.Info("Ledger snapshot stored",
		log.FieldOperation, log.OpSnapshot,
		log.FieldSnapshotID, id,
		"bytes", len(document))
	return id, nil
}

func (a *Archive) prune(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
		)`, a.retention)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// List returns the stored snapshots, newest first.
func (a *Archive) List(ctx context.Context) ([]Info, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, taken_at, length(document) FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var takenAt string
		if err := rows.Scan(&info.ID, &takenAt, &info.Bytes); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		info.TakenAt, err = time.Parse(time.RFC3339, takenAt)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot time: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Load reads one snapshot back into a ledger.
func (a *Archive) Load(ctx context.Context, id int64) (*core.Ledger, error) {
	var document string
	err := a.db.QueryRowContext(ctx,
		`SELECT document FROM snapshots WHERE id = ?`, id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Kind: "snapshot", ID: fmt.Sprint(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	ledger := &core.Ledger{}
	if err := json.Unmarshal([]byte(document), ledger); err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", id, err)
	}
	return ledger, nil
}

// Latest reads the most recent snapshot.
func (a *Archive) Latest(ctx context.Context) (*core.Ledger, Info, error) {
	infos, err := a.List(ctx)
	if err != nil {
		return nil, Info{}, err
	}
	if len(infos) == 0 {
		return nil, Info{}, &core.NotFoundError{Kind: "snapshot", ID: "latest"}
	}
	ledger, err := a.Load(ctx, infos[0].ID)
	return ledger, infos[0], err
}

// Run takes a snapshot every interval until ctx is cancelled. source
// must hand out a stable copy of the current document.
func (a *Archive) Run(ctx context.Context, interval time.Duration, source func() *core.Ledger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("Snapshot loop started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Snapshot loop stopped")
			return
		case <-ticker.C:
			if _, err := a.Snapshot(ctx, source()); err != nil {
				a.logger.Error("Scheduled snapshot failed", log.FieldError, err.Error())
			}
		}
	}
}
