// Package domain holds the core types and repository contracts of the
// engagement subsystem: posts, votes, reactions, moderation flags and
// notifications, plus the denormalized counters the store maintains for them.
//
// The domain layer has no knowledge of HTTP, Postgres or Redis. Repositories
// are implemented in internal/postgres; the pure state-transition logic lives
// in internal/engage.
package domain
