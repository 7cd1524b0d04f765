// Package repositories implements SQLite persistence for the bridge's local state.
//
// Key Implementations:
//   - [SetsRepository] : organization-scoped named JSON blobs, created on first save and overwritten after
//   - [ConfigStore] : short-video defaults on top of sets, keyed globally or per platform account
//   - [IntegrationRepository] : read-only view of the platform's connected channels
//
// Integrations are owned by the scheduling platform. The table is a mirror; [IntegrationRepository.Upsert]
// exists so the CLI can seed it, and soft-deleted rows are excluded from every query.
package repositories
