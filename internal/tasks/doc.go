// Package tasks orchestrates the remote operations of the bridge with real-time progress reporting.
//
// # Core Operations
//
//  1. [Reconciler.Sync] : ensure one generator account is linked to a platform integration
//     - Resolves the generator platform from the provider (no remote call when unsupported)
//     - Returns the account already linked to the integration, if any
//     - Otherwise links the best unlinked account on the platform (parent platform when empty)
//     - Otherwise creates an active account with the link pre-populated
//
//  2. [Reconciler.DeleteByIntegrationID] : cascade-delete the accounts linked to a removed integration
//     - Lists up to [CascadePageSize] linked accounts
//     - Deletes each independently and reports per-account outcomes in a [CascadeResult]
//
//  3. [TaskBatcher.CreateTasks] : create one generation task per integration
//     - Resolves each request with the resolver package
//     - Runs on a bounded worker pool paced by a rate limiter
//     - Keeps per-integration outcomes; [BatchResult.FirstError] gives the batch-level error
//
// # Failure Reporting
//
// Expected sync failures are returned as [*SyncFailure] and the reason is kept for
// [Reconciler.LastFailureReason]. Transport errors are returned wrapped.
//
// # Progress Reporting
//
// All operations accept an optional channel of [ProgressUpdate]. Updates use select with default to
// prevent blocking.
//
// # Matching
//
// [MatchIntegration] pairs generator accounts with integrations by native id, then by display name.
// It ranks sync candidates and drives [EnrichAvatars] for account listings.
package tasks
