package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/svbridge/internal/models"
	"github.com/desertthunder/svbridge/internal/shared"
)

// IntegrationRepository reads the platform's connected channels.
type IntegrationRepository struct {
	db *sql.DB
}

// NewIntegrationRepository creates a new [IntegrationRepository] with the given database connection
func NewIntegrationRepository(db *sql.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

const integrationColumns = `id, organization_id, name, picture, provider_identifier, internal_id, root_internal_id, created_at, updated_at`

// Get retrieves an integration of an organization, excluding soft-deleted rows
func (r *IntegrationRepository) Get(ctx context.Context, organizationID, id string) (*models.Integration, error) {
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE organization_id = ? AND id = ? AND deleted_at IS NULL`

	i, err := scanIntegration(r.db.QueryRowContext(ctx, query, organizationID, id))
	if err != nil {
		return nil, notFound(err, "integration", id)
	}
	return i, nil
}

// ListByOrganization returns the organization's integrations, oldest first
func (r *IntegrationRepository) ListByOrganization(ctx context.Context, organizationID string) ([]models.Integration, error) {
	query := `
		SELECT ` + integrationColumns + `
		FROM integrations
		WHERE organization_id = ? AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query integrations: %w", err)
	}
	defer rows.Close()

	var out []models.Integration
	for rows.Next() {
		i, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan integration: %w", err)
		}
		out = append(out, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate integrations: %w", err)
	}
	return out, nil
}

// Upsert inserts or replaces an integration. A blank ID is generated.
func (r *IntegrationRepository) Upsert(ctx context.Context, i *models.Integration) error {
	if i.OrganizationID == "" || i.ProviderIdentifier == "" {
		return fmt.Errorf("%w: organization and provider are required", shared.ErrMissingArgument)
	}
	if i.ID == "" {
		i.ID = shared.GenerateID()
	}

	now := time.Now().UTC()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now

	query := `
		INSERT INTO integrations (` + integrationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = excluded.organization_id,
			name = excluded.name,
			picture = excluded.picture,
			provider_identifier = excluded.provider_identifier,
			internal_id = excluded.internal_id,
			root_internal_id = excluded.root_internal_id,
			updated_at = excluded.updated_at,
			deleted_at = NULL
	`

	_, err := r.db.ExecContext(ctx, query,
		i.ID, i.OrganizationID, i.Name, i.Picture, i.ProviderIdentifier,
		i.InternalID, i.RootInternalID, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert integration: %w", err)
	}
	return nil
}

// Delete soft-deletes an integration
func (r *IntegrationRepository) Delete(ctx context.Context, organizationID, id string) error {
	query := `UPDATE integrations SET deleted_at = ? WHERE organization_id = ? AND id = ? AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), organizationID, id)
	if err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: integration %s", shared.ErrNotFound, id)
	}
	return nil
}

func scanIntegration(s scanner) (*models.Integration, error) {
	var i models.Integration
	err := s.Scan(
		&i.ID, &i.OrganizationID, &i.Name, &i.Picture, &i.ProviderIdentifier,
		&i.InternalID, &i.RootInternalID, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
