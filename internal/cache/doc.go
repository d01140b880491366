// Package cache holds the local copy of the session's tasks and derives
// everything the dashboard renders from it.
//
// The cache is the single holder of task state. Confirmed mutations are
// folded in through Apply, full refetches land through Begin/Replace
// with a generation guard against out-of-order responses, and filtered
// views plus aggregate stats are derived on demand. Subscribers
// registered with Subscribe run after every change, once the new state
// is observable, so render layers never see a view and stats computed
// from different snapshots.
package cache
