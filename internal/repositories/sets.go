package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/svbridge/internal/shared"
)

// SetsRepository stores named JSON blobs per organization.
type SetsRepository struct {
	db *sql.DB
}

// NewSetsRepository creates a new [SetsRepository] with the given database connection
func NewSetsRepository(db *sql.DB) *SetsRepository {
	return &SetsRepository{db: db}
}

// Get returns the content stored under name, and false when no row exists.
func (r *SetsRepository) Get(ctx context.Context, organizationID, name string) (string, bool, error) {
	query := `SELECT content FROM sets WHERE organization_id = ? AND name = ?`

	var content string
	err := r.db.QueryRowContext(ctx, query, organizationID, name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query set %s: %w", name, err)
	}
	return content, true, nil
}

// Save creates the row on first save and overwrites its content afterwards.
func (r *SetsRepository) Save(ctx context.Context, organizationID, name, content string) error {
	if organizationID == "" || name == "" {
		return fmt.Errorf("%w: organization and name are required", shared.ErrMissingArgument)
	}

	query := `
		INSERT INTO sets (id, organization_id, name, content) VALUES (?, ?, ?, ?)
		ON CONFLICT (organization_id, name)
		DO UPDATE SET content = excluded.content, updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.ExecContext(ctx, query, shared.GenerateID(), organizationID, name, content); err != nil {
		return fmt.Errorf("failed to save set %s: %w", name, err)
	}
	return nil
}

// Delete removes a row; missing rows are not an error.
func (r *SetsRepository) Delete(ctx context.Context, organizationID, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sets WHERE organization_id = ? AND name = ?`, organizationID, name); err != nil {
		return fmt.Errorf("failed to delete set %s: %w", name, err)
	}
	return nil
}
