// Package fredsync maintains a local, deduplicated store of economic
// time-series indicators fetched from the FRED data provider.
//
// The core functionalities include:
//   - Catalog Loading: Parsing a row-oriented catalog definition
//     (sector, category, indicator name, series code) into an ordered
//     hierarchy of categories and indicators.
//   - Catalog Reconciliation: Merging a freshly parsed catalog into the
//     persisted one without breaking existing identities or category
//     ordinals; new categories are always appended after existing ones.
//   - Incremental Data Sync: For each indicator, computing the exact date
//     gaps between the requested range and what the store already holds,
//     and fetching only those, so repeated runs issue no redundant
//     network calls. A full-refresh mode discards and refetches a range.
//   - Rate-Limited Provider Access: All fetches draw from a single shared
//     request budget, with bounded retries and classified failures, so an
//     entire run never exceeds the provider's rate limit.
//   - Durable Uniqueness: The storage layer guarantees at most one value
//     per (indicator, date) pair at the schema level; writes are upserts.
//
// This package serves as the foundational logic for the `fsync`
// command-line tool; reporting and visualization layers consume the
// store it maintains.
package fredsync
