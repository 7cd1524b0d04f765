// Package services implements the client for the short-video generator's REST API.
//
// # Generator
//
// [Generator] wraps a [resty.Client]. The base URL is resolved through a [BaseURLFunc] on every call,
// so a missing SHORT_VIDEO_API_URL is reported per request and picked up as soon as it is set.
//
// Each call runs under its own deadline:
//   - Timeouts.Request (15s) for task, persona, prompt and catalog calls
//   - Timeouts.Lookup (10s) for the find-by-link query
//   - Timeouts.Delete (10s) for account deletes
//
// There are no retries. A failed call is returned to the caller immediately.
//
// # Error Handling
//
// Non-2xx answers become [UpstreamError] carrying the status code and the body's message or detail.
// It implements [shared.StatusError], so HTTP handlers pass the generator's status through unchanged.
// Transport failures wrap [shared.ErrAPIRequest] and map to 500.
//
// # Interfaces
//
// [AccountService] and [TaskService] are the narrow views consumed by the reconciler and the batch
// task engine in the tasks package.
package services
