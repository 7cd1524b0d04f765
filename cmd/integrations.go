package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/svbridge/internal/models"
	"github.com/desertthunder/svbridge/internal/shared"
	"github.com/desertthunder/svbridge/internal/ui"
)

// IntegrationsAdd stores an integration record.
func (r *Runner) IntegrationsAdd(ctx context.Context, cmd *cli.Command) error {
	db, release, err := r.database()
	if err != nil {
		return err
	}
	defer release()

	_, integrations := r.stores(db)
	i := models.Integration{
		ID:                 cmd.String("id"),
		OrganizationID:     cmd.String("org"),
		Name:               cmd.String("name"),
		Picture:            cmd.String("picture"),
		ProviderIdentifier: cmd.String("provider"),
		InternalID:         cmd.String("internal-id"),
		RootInternalID:     cmd.String("root-internal-id"),
	}
	if err := integrations.Upsert(ctx, &i); err != nil {
		return err
	}

	r.logger.Info("integration saved", "id", i.ID, "organization", i.OrganizationID)
	r.writePlain("%s\n", ui.Styles.Outcome(fmt.Sprintf("integration %s (%s)", i.ID, i.ProviderIdentifier), nil))
	return nil
}

// IntegrationsList prints an organization's integrations.
func (r *Runner) IntegrationsList(ctx context.Context, cmd *cli.Command) error {
	db, release, err := r.database()
	if err != nil {
		return err
	}
	defer release()

	_, integrations := r.stores(db)
	list, err := integrations.ListByOrganization(ctx, cmd.String("org"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}

	r.writePlainHeader(fmt.Sprintf("Integrations (%d)", len(list)))
	for _, i := range list {
		r.writePlain("%s  %-20s %s", i.ID, i.ProviderIdentifier, shared.Truncate(i.Name, 40))
		if i.InternalID != "" {
			r.writePlain(" %s", ui.Styles.Help(i.InternalID))
		}
		r.writePlain("\n")
	}
	return nil
}

// IntegrationsRemove cascades the generator accounts of an integration and drops the local record.
// The record is kept when any account could not be deleted.
func (r *Runner) IntegrationsRemove(ctx context.Context, cmd *cli.Command) error {
	org, id := cmd.String("org"), cmd.String("id")

	db, release, err := r.database()
	if err != nil {
		return err
	}
	defer release()

	configs, integrations := r.stores(db)
	if _, err := integrations.Get(ctx, org, id); err != nil {
		return err
	}

	res, err := r.reconciler.DeleteByIntegrationID(ctx, id, nil)
	if err != nil {
		return fmt.Errorf("failed to list linked accounts: %w", err)
	}
	for _, accountID := range res.DeletedIDs() {
		if err := configs.Delete(ctx, org, accountID); err != nil {
			r.logger.Warn("failed to drop stored account config", "account", accountID, "error", err)
		}
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("integration %s kept: %w", id, err)
	}

	if err := integrations.Delete(ctx, org, id); err != nil {
		return err
	}
	r.writePlain("%s\n", ui.Styles.Outcome(fmt.Sprintf("integration %s removed (%d accounts deleted)", id, res.Deleted()), nil))
	return nil
}
