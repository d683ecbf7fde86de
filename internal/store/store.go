// Package store handles SQLite persistence of imported periods.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gh674055/sports-compare-bots/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for period data.
type Store struct {
	db *sqlx.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS periods (
			id INTEGER PRIMARY KEY,
			batch TEXT NOT NULL,
			subject TEXT NOT NULL,
			granularity TEXT NOT NULL,
			year INTEGER NOT NULL,
			playoffs INTEGER NOT NULL,
			team TEXT NOT NULL,
			result TEXT NOT NULL,
			imported_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS period_stats (
			period_id INTEGER NOT NULL,
			category TEXT NOT NULL,
			stat TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (period_id, category, stat)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_periods_subject ON periods(subject, granularity, year);`,
		`CREATE INDEX IF NOT EXISTS idx_periods_batch ON periods(batch);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertPeriods stores the periods of one subject under an import batch and
// returns how many were written.
func (s *Store) InsertPeriods(ctx context.Context, batch, subject string, granularity model.Granularity, periods []model.Period) (_ int, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO period_stats (period_id, category, stat, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	importedAt := time.Now().UTC().Format(time.RFC3339Nano)
	for _, p := range periods {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO periods (batch, subject, granularity, year, playoffs, team, result, imported_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			batch, subject, granularity.String(), p.Year, p.Playoffs, p.Team, string(p.Result), importedAt,
		)
		if err != nil {
			return 0, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		for cat, stats := range p.Stats {
			for stat, v := range stats {
				if _, err := stmt.ExecContext(ctx, id, cat, stat, v); err != nil {
					return 0, err
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(periods), nil
}

type periodRow struct {
	ID       int64  `db:"id"`
	Year     int    `db:"year"`
	Playoffs bool   `db:"playoffs"`
	Team     string `db:"team"`
	Result   string `db:"result"`
}

type statRow struct {
	PeriodID int64   `db:"period_id"`
	Category string  `db:"category"`
	Stat     string  `db:"stat"`
	Value    float64 `db:"value"`
}

// ListPeriods returns the periods matching filter, ordered by year with the
// regular season first.
func (s *Store) ListPeriods(ctx context.Context, filter model.PeriodFilter) ([]model.Period, error) {
	clauses := []string{"subject = ?", "granularity = ?"}
	args := []any{filter.Subject, filter.Granularity.String()}
	switch filter.Playoffs {
	case model.PlayoffsNo:
		clauses = append(clauses, "playoffs = 0")
	case model.PlayoffsOnly:
		clauses = append(clauses, "playoffs = 1")
	}
	if filter.FromYear > 0 {
		clauses = append(clauses, "year >= ?")
		args = append(args, filter.FromYear)
	}
	if filter.ToYear > 0 {
		clauses = append(clauses, "year <= ?")
		args = append(args, filter.ToYear)
	}
	query := fmt.Sprintf(`SELECT id, year, playoffs, team, result
		FROM periods
		WHERE %s
		ORDER BY year ASC, playoffs ASC, id ASC`, strings.Join(clauses, " AND "))

	var rows []periodRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	statQuery, statArgs, err := sqlx.In(
		`SELECT period_id, category, stat, value FROM period_stats WHERE period_id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var stats []statRow
	if err := s.db.SelectContext(ctx, &stats, s.db.Rebind(statQuery), statArgs...); err != nil {
		return nil, err
	}

	byID := make(map[int64]map[string]map[string]float64, len(rows))
	for _, st := range stats {
		cats, ok := byID[st.PeriodID]
		if !ok {
			cats = map[string]map[string]float64{}
			byID[st.PeriodID] = cats
		}
		if cats[st.Category] == nil {
			cats[st.Category] = map[string]float64{}
		}
		cats[st.Category][st.Stat] = st.Value
	}

	periods := make([]model.Period, len(rows))
	for i, r := range rows {
		stats := byID[r.ID]
		if stats == nil {
			stats = map[string]map[string]float64{}
		}
		periods[i] = model.Period{
			Year:     r.Year,
			Playoffs: r.Playoffs,
			Team:     r.Team,
			Result:   model.Result(r.Result),
			Stats:    stats,
		}
	}
	return periods, nil
}

type subjectRow struct {
	Name      string `db:"subject"`
	Periods   int    `db:"periods"`
	FirstYear int    `db:"first_year"`
	LastYear  int    `db:"last_year"`
}

// ListSubjects summarises every stored subject, sorted by name.
func (s *Store) ListSubjects(ctx context.Context) ([]model.SubjectSummary, error) {
	var rows []subjectRow
	err := s.db.SelectContext(ctx, &rows, `SELECT subject, COUNT(*) AS periods,
		MIN(year) AS first_year, MAX(year) AS last_year
		FROM periods
		GROUP BY subject
		ORDER BY subject ASC`)
	if err != nil {
		return nil, err
	}
	out := make([]model.SubjectSummary, len(rows))
	for i, r := range rows {
		out[i] = model.SubjectSummary(r)
	}
	return out, nil
}

// DeleteBatch removes every period written by an import batch.
func (s *Store) DeleteBatch(ctx context.Context, batch string) (n int64, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM period_stats WHERE period_id IN (SELECT id FROM periods WHERE batch = ?)`, batch); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM periods WHERE batch = ?`, batch)
	if err != nil {
		return 0, err
	}
	if n, err = res.RowsAffected(); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}
