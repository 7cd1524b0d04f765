// Package resolver merges the configuration layers of a short-video task into one generator request.
//
// # Layers
//
// Three layers feed a task, highest precedence last:
//
//  1. base: organization defaults (or task-level config when an account is linked)
//  2. overrides: task-level fields supplied by the caller, in the platform's camelCase vocabulary
//  3. identity: integration id and provider platform, always written
//
// # Schema
//
// Every recognised field is one row in [Schema]: the generator key it writes, the base keys it reads
// (later keys win), the override key, a definedness [Predicate] per layer, an optional [Coercion] and
// any mirrored keys. [Resolve] is a single fold over that table.
//
// String fields count as set only when non-empty; numeric and boolean fields count as set when
// non-null, so 0, false and empty arrays survive where the predicate allows them.
//
// # Prompt fallback
//
// When neither prompt_templates nor prompt_configs is set after the fold, [Resolve] injects
// [DefaultPromptConfigs] so the generator never receives a task without prompt guidance.
//
// # Status
//
// [NormalizeStatus] folds the generator's open-ended task status into four [models.TaskStatus] values.
package resolver
