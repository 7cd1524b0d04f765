package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/svbridge/internal/models"
	"github.com/desertthunder/svbridge/internal/services"
	"github.com/desertthunder/svbridge/internal/shared"
)

// CascadePageSize bounds the listing used by [Reconciler.DeleteByIntegrationID].
const CascadePageSize = 100

// SyncParams identifies the integration being reconciled.
type SyncParams struct {
	IntegrationID   string
	OrganizationID  string
	Name            string
	Picture         string
	Provider        string
	NativeAccountID string // provider-native id, e.g. a YouTube channel id
	RootAccountID   string // parent account id for sub-channels
}

// ParamsFor builds [SyncParams] from a stored integration.
func ParamsFor(i *models.Integration) SyncParams {
	return SyncParams{
		IntegrationID:   i.ID,
		OrganizationID:  i.OrganizationID,
		Name:            i.Name,
		Picture:         i.Picture,
		Provider:        i.ProviderIdentifier,
		NativeAccountID: i.InternalID,
		RootAccountID:   i.RootInternalID,
	}
}

// SyncFailure is an expected reconciliation failure with a caller-facing reason.
type SyncFailure struct {
	Reason string
	Err    error
}

func (e *SyncFailure) Error() string { return e.Reason }

func (e *SyncFailure) Unwrap() error { return e.Err }

// Status reports sync failures as 500s, whatever the generator answered.
func (e *SyncFailure) Status() int { return http.StatusInternalServerError }

// Reconciler keeps platform integrations and generator accounts linked.
//
// It holds no state besides the last failure reason; the generator is the only source of truth.
// Concurrent syncs for the same integration can both reach the create step and leave two linked
// accounts. The next sync returns the first one it finds.
type Reconciler struct {
	accounts  services.AccountService
	baseURL   services.BaseURLFunc
	platforms *models.PlatformMap
	logger    *log.Logger

	mu          sync.Mutex
	lastFailure string
}

// NewReconciler creates a reconciler. baseURL is checked before any remote call.
func NewReconciler(accounts services.AccountService, baseURL services.BaseURLFunc, platforms *models.PlatformMap, logger *log.Logger) *Reconciler {
	if platforms == nil {
		platforms = models.DefaultPlatformMap
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reconciler{
		accounts:  accounts,
		baseURL:   baseURL,
		platforms: platforms,
		logger:    logger,
	}
}

// LastFailureReason returns the reason recorded by the most recent failed sync.
func (r *Reconciler) LastFailureReason() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFailure
}

// Sync ensures one generator account is linked to the integration and returns its id.
//
// Expected failures (generator not configured, unsupported provider, generator rejected a call) are
// returned as [*SyncFailure] and recorded for [Reconciler.LastFailureReason]. Transport failures are
// returned wrapped.
func (r *Reconciler) Sync(ctx context.Context, p SyncParams, progress chan<- ProgressUpdate) (string, error) {
	if _, err := r.baseURL(); err != nil {
		return "", r.fail(p, shared.ConfigMessage(err), err)
	}

	platform, ok := r.platforms.PlatformFor(p.Provider)
	if !ok {
		return "", r.fail(p, fmt.Sprintf("%v: %s", shared.ErrUnsupportedProvider, p.Provider), shared.ErrUnsupportedProvider)
	}
	sendProgress(progress, syncStepUpdate(ResolvePlatform, 1, fmt.Sprintf("%s → %s", p.Provider, platform)))

	sendProgress(progress, syncStepUpdate(FindLinked, 2, "Looking for a linked account..."))
	linked, err := r.accounts.FindByIntegration(ctx, p.IntegrationID)
	if err != nil {
		return "", r.failRemote(p, err)
	}
	if linked != nil {
		r.logger.Info("platform account already linked", "integration", p.IntegrationID, "account", linked.ID)
		return linked.ID, nil
	}

	link := models.Link{OrganizationID: p.OrganizationID, IntegrationID: p.IntegrationID}

	sendProgress(progress, syncStepUpdate(FindCandidate, 3, "Looking for an unlinked account..."))
	candidate, err := r.findCandidate(ctx, platform, p)
	if err != nil {
		return "", r.failRemote(p, err)
	}
	if candidate != nil {
		sendProgress(progress, syncStepUpdate(LinkAccount, 4, fmt.Sprintf("Linking %s...", candidate.ID)))
		if err := r.accounts.LinkAccount(ctx, candidate.ID, link); err != nil {
			return "", r.failRemote(p, err)
		}
		r.logger.Info("linked existing platform account", "integration", p.IntegrationID, "account", candidate.ID)
		return candidate.ID, nil
	}

	sendProgress(progress, syncStepUpdate(CreateAccount, 4, fmt.Sprintf("Creating %s account...", platform)))
	created, err := r.accounts.CreateAccount(ctx, newAccountBody(platform, p, link))
	if err != nil {
		return "", r.failRemote(p, err)
	}
	if created == nil || created.ID == "" {
		return "", r.fail(p, "generator request failed: no account id returned", shared.ErrAPIRequest)
	}

	r.logger.Info("created platform account", "integration", p.IntegrationID, "account", created.ID, "platform", platform)
	return created.ID, nil
}

// findCandidate returns the best unlinked (or already self-linked) account on platform, falling back
// to the parent platform when the platform has no accounts at all.
func (r *Reconciler) findCandidate(ctx context.Context, platform string, p SyncParams) (*models.GeneratorAccount, error) {
	page, err := r.accounts.ListAccounts(ctx, services.AccountFilter{Platform: platform})
	if err != nil {
		return nil, err
	}

	items := page.Items
	if len(items) == 0 {
		if parent, ok := r.platforms.Parent(platform); ok {
			page, err = r.accounts.ListAccounts(ctx, services.AccountFilter{Platform: parent})
			if err != nil {
				return nil, err
			}
			items = page.Items
		}
	}

	var eligible []models.GeneratorAccount
	for _, acc := range items {
		if acc.ID == "" {
			continue
		}
		if l := acc.LinkedIntegration(); l == "" || l == p.IntegrationID {
			eligible = append(eligible, acc)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	self := models.Integration{ID: p.IntegrationID, Name: p.Name, InternalID: p.NativeAccountID, RootInternalID: p.RootAccountID}
	best, bestScore := 0, -1
	for i := range eligible {
		if s := matchScore(&eligible[i], &self); s > bestScore {
			best, bestScore = i, s
		}
	}
	return &eligible[best], nil
}

func newAccountBody(platform string, p SyncParams, link models.Link) services.AccountCreate {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		seed := p.NativeAccountID
		if seed == "" {
			seed = p.IntegrationID
		}
		name = "Channel_" + shared.Truncate(seed, 16)
	}

	cfg := map[string]any{
		"platform": platform,
		"postiz":   link,
	}
	if p.Picture != "" {
		cfg["avatar_url"] = p.Picture
	}

	return services.AccountCreate{
		Name:      name,
		Platform:  platform,
		Status:    "active",
		Config:    cfg,
		Postiz:    &link,
		AccountID: p.NativeAccountID,
	}
}

// failRemote records a failed generator call. Upstream rejections become [*SyncFailure];
// transport errors are returned as-is after recording.
func (r *Reconciler) failRemote(p SyncParams, err error) error {
	var upstream *services.UpstreamError
	switch {
	case errors.As(err, &upstream):
		detail := upstream.Message
		if detail == "" {
			detail = fmt.Sprintf("status %d", upstream.StatusCode)
		}
		return r.fail(p, fmt.Sprintf("generator request failed: %q", detail), err)
	case errors.Is(err, shared.ErrMissingConfig):
		return r.fail(p, shared.ConfigMessage(err), err)
	}

	r.record(fmt.Sprintf("generator request failed: %q", err.Error()))
	r.logger.Warn("platform account sync failed", "integration", p.IntegrationID, "provider", p.Provider, "error", err)
	return fmt.Errorf("syncing integration %s: %w", p.IntegrationID, err)
}

func (r *Reconciler) fail(p SyncParams, reason string, err error) error {
	r.record(reason)
	r.logger.Warn("platform account sync failed", "integration", p.IntegrationID, "provider", p.Provider, "reason", reason)
	return &SyncFailure{Reason: reason, Err: err}
}

func (r *Reconciler) record(reason string) {
	r.mu.Lock()
	r.lastFailure = reason
	r.mu.Unlock()
}

// CascadeOutcome is the result of deleting one account.
type CascadeOutcome struct {
	AccountID string
	Err       error
}

// CascadeResult lists what happened to every account linked to an integration.
type CascadeResult struct {
	IntegrationID string
	Outcomes      []CascadeOutcome
}

// Deleted counts successful deletes.
func (c *CascadeResult) Deleted() int {
	n := 0
	for _, o := range c.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// DeletedIDs returns the ids of the accounts that were deleted.
func (c *CascadeResult) DeletedIDs() []string {
	var out []string
	for _, o := range c.Outcomes {
		if o.Err == nil {
			out = append(out, o.AccountID)
		}
	}
	return out
}

// Failures returns the outcomes that failed.
func (c *CascadeResult) Failures() []CascadeOutcome {
	var out []CascadeOutcome
	for _, o := range c.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Err joins every per-account failure, or returns nil.
func (c *CascadeResult) Err() error {
	var errs []error
	for _, o := range c.Failures() {
		errs = append(errs, fmt.Errorf("account %s: %w", o.AccountID, o.Err))
	}
	return errors.Join(errs...)
}

// DeleteByIntegrationID deletes every generator account linked to integrationID.
//
// Accounts are deleted independently: one failure is logged and recorded, and the rest still run.
// The returned error is only set when the accounts could not be listed.
func (r *Reconciler) DeleteByIntegrationID(ctx context.Context, integrationID string, progress chan<- ProgressUpdate) (*CascadeResult, error) {
	if _, err := r.baseURL(); err != nil {
		return nil, err
	}

	result := &CascadeResult{IntegrationID: integrationID}

	sendProgress(progress, listLinkedUpdate(integrationID))
	page, err := r.accounts.ListAccounts(ctx, services.AccountFilter{IntegrationID: integrationID, Limit: CascadePageSize})
	if err != nil {
		r.logger.Warn("failed to list linked platform accounts", "integration", integrationID, "error", err)
		return result, err
	}

	var targets []string
	for _, acc := range page.Items {
		if acc.ID == "" || acc.LinkedIntegration() != integrationID {
			continue
		}
		targets = append(targets, acc.ID)
	}

	for i, id := range targets {
		outcome := CascadeOutcome{AccountID: id}
		if _, err := r.accounts.DeleteAccount(ctx, id); err != nil {
			outcome.Err = err
			r.logger.Warn("failed to delete platform account", "integration", integrationID, "account", id, "error", err)
		}
		result.Outcomes = append(result.Outcomes, outcome)
		sendProgress(progress, deleteAccountUpdate(i+1, len(targets), outcome))
	}

	r.logger.Info("cascade delete finished", "integration", integrationID, "deleted", result.Deleted(), "failed", len(result.Failures()))
	return result, nil
}
