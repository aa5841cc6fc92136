package repository

import (
	"context"
	"fmt"

	"cyberlaw-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool used by LawRepository
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// LawRepository handles database operations for law sections
type LawRepository struct {
	db DBTX
}

// NewLawRepository creates a new law repository
func NewLawRepository(db DBTX) *LawRepository {
	return &LawRepository{db: db}
}

// schemaStatements create the law_sections table and its lookup index
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS law_sections (
		id SERIAL PRIMARY KEY,
		section TEXT NOT NULL,
		offense TEXT NOT NULL,
		punishment TEXT NOT NULL,
		case_type TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_law_sections_section ON law_sections(section)`,
}

// CreateSchema creates the law_sections table if it does not exist
func (r *LawRepository) CreateSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create law_sections schema: %w", err)
		}
	}
	return nil
}

// LoadAll reads every law section in insertion order and builds the table
func (r *LawRepository) LoadAll(ctx context.Context) (*LawTable, error) {
	query := `
		SELECT section, offense, punishment, case_type
		FROM law_sections
		ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query law sections: %v", ErrDataLoad, err)
	}
	defer rows.Close()

	var entries []models.LawEntry
	for rows.Next() {
		var entry models.LawEntry
		err := rows.Scan(
			&entry.Section,
			&entry.Offense,
			&entry.Punishment,
			&entry.CaseType,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan law section: %v", ErrDataLoad, err)
		}
		if entry.Section == "" {
			return nil, fmt.Errorf("%w: empty section in law_sections", ErrDataLoad)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating law sections: %v", ErrDataLoad, err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: law_sections is empty", ErrDataLoad)
	}

	return NewLawTable(entries), nil
}

// ImportEntries replaces the contents of law_sections with entries
func (r *LawRepository) ImportEntries(ctx context.Context, entries []models.LawEntry) error {
	batch := &pgx.Batch{}
	batch.Queue(`TRUNCATE law_sections RESTART IDENTITY`)
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO law_sections (section, offense, punishment, case_type)
			VALUES ($1, $2, $3, $4)`,
			e.Section, e.Offense, e.Punishment, e.CaseType,
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to import law section %d: %w", i, err)
		}
	}

	return nil
}
