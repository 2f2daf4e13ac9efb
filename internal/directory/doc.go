// Package directory merges organizational profiles with live presence.
//
// A run has two steps. PageFetcher reads one bounded, server-side filtered and
// sorted page of profiles from a Source; that step is all-or-nothing. Aggregator
// then looks up presence for every profile concurrently, reconciles out-of-office
// overrides, drops profiles whose lookup failed or whose presence is unknown, and
// returns the survivors in input order. Service composes the two.
//
// Nothing is cached between runs.
package directory
