// Package runs aggregates job outcomes into run status.
//
// A run becomes done when its persisted screenshot count reaches ExpectedShots, and
// error when any of its jobs exhausts its attempts. Both checks re-read the store and
// finish with a conditional status update, so concurrent completions for the same run
// converge on the true total and never move a finished run.
package runs
