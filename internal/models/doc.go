// Package models defines the domain entities shared by the short-video bridge.
//
// The package contains two categories of types:
//
// 1. Platform-side records, consumed read-only:
//   - [Integration] : a connected channel on the scheduling platform
//
// 2. Generator-side records, created and updated only through the generator's REST API:
//   - [GeneratorAccount] : the generator's account with its [Link] back-reference
//   - [TaskStatus] : the four caller-facing task states
//
// [PlatformMap] is the single source of truth for which provider identifiers are eligible for
// short-video sync and which generator platform each one maps to.
package models
