package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/svbridge/internal/tasks"
	"github.com/desertthunder/svbridge/internal/ui"
)

// Sync links a stored integration to a generator account.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	org := cmd.String("org")
	integrationID := cmd.String("integration")

	db, release, err := r.database()
	if err != nil {
		return err
	}
	defer release()

	_, integrations := r.stores(db)
	integration, err := integrations.Get(ctx, org, integrationID)
	if err != nil {
		return err
	}

	r.logger.Info("syncing integration", "integration", integrationID, "provider", integration.ProviderIdentifier)
	r.writePlain("Syncing %s (%s)...\n", integration.Name, integration.ProviderIdentifier)

	progressCh, done := r.printProgress()
	id, err := r.reconciler.Sync(ctx, tasks.ParamsFor(integration), progressCh)
	close(progressCh)
	<-done

	if err != nil {
		r.writePlain("\n%s\n", ui.Styles.Outcome(integrationID, errors.New(r.reconciler.LastFailureReason())))
		return err
	}

	r.writePlain("\n%s\n", ui.Styles.Outcome(fmt.Sprintf("%s → platform account %s", integrationID, id), nil))
	return nil
}

// Cascade deletes every generator account linked to an integration.
func (r *Runner) Cascade(ctx context.Context, cmd *cli.Command) error {
	integrationID := cmd.String("integration")

	progressCh, done := r.printProgress()
	res, err := r.reconciler.DeleteByIntegrationID(ctx, integrationID, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return fmt.Errorf("failed to list linked accounts: %w", err)
	}

	r.writePlain("\n")
	r.writePlainHeader("Cascade Complete")
	r.writePlain("Integration: %s\n", integrationID)
	r.writePlain("Deleted: %d/%d\n", res.Deleted(), len(res.Outcomes))

	if failures := res.Failures(); len(failures) > 0 {
		r.writePlain("\nFailed to delete %d accounts:\n", len(failures))
		for _, f := range failures {
			r.writePlain("  %s\n", ui.Styles.Outcome(f.AccountID, f.Err))
		}
		return res.Err()
	}
	return nil
}

// printProgress prints updates until the returned channel is closed; done closes once printing stops.
func (r *Runner) printProgress() (chan tasks.ProgressUpdate, <-chan struct{}) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.DeleteAccounts, tasks.CreateTasks:
				r.writePlain("   %s\n", update.Message)
			default:
				r.writePlain("%s %s\n", ui.Styles.Help(fmt.Sprintf("[%d/%d]", update.Step, update.Total)), update.Message)
			}
		}
	}()
	return progressCh, done
}
