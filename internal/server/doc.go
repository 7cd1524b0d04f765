// Package server exposes the short-video surface over HTTP.
//
// All routes live under /short-video and are scoped to the organization named by the
// X-Organization-Id header; authentication itself happens in front of this service.
//
// # Routes
//
// Task creation resolves one generator task per integration from organization defaults and the
// request's overrides (see package resolver) and fans the calls out through a [tasks.TaskBatcher].
// Reading, deleting, triggering and retrying tasks, personas, prompts and the book catalog are passed
// through to the generator.
//
// Platform account listings are enriched with avatars from the organization's integrations.
// /sync-platform-account and the integration hooks drive the [tasks.Reconciler].
//
// # Errors
//
// Every error body is {"message": "..."}. The status comes from [shared.HTTPStatus]: generator
// rejections keep the generator's status and message, and each route has its own fallback message.
package server
