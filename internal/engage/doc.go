// Package engage contains the state-transition logic of the engagement
// engines: the three-state vote machine, the reaction toggle rules, the
// moderation transition table, the hot/chronological feed ranking with its
// cursor codec, and the notification dispatcher.
//
// Everything except the dispatcher is pure: the engines compute deltas and
// next states, and the Postgres store applies them atomically. That split
// keeps the invariants unit-testable without a database.
package engage
