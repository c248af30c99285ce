// Package tasks runs the enrichment pipeline that resolves input rows to catalog tracks with real-time progress
// reporting.
//
// # Pipeline
//
// [LoadPending] opens both tables and collects unprocessed rows. [ComputeBudget] caps how many of them a run may
// attempt: the goal minus tracks already retrieved, optionally lowered by the operator.
//
// [Enricher.Run] then walks the rows in order and calls [Enricher.ResolveOne] for each:
//
//  1. Search `artist:"<artist>" track:<title>` through the [RateGate]
//  2. On HTTP 429, sleep for Retry-After and start the row over
//  3. On no match, search `artist:"<artist>"` alone
//  4. Take the first match, fill in the year from the album release date when the input has none
//  5. Append to the output table unless the track URL is already there
//  6. Mark the input row processed, with or without output
//
// Any other lookup failure leaves the row pending for the next run. With an [AttemptTracker] configured, a row that
// keeps failing is eventually abandoned.
//
// # Rate limiting
//
// [RateGate] is a fixed window: at most N requests per window, counted from the window's first request. The
// request past the limit sleeps out the remainder.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking. Rows that finish carry [RowProgress] with an ETA computed by
// [Estimator] over recent row durations.
package tasks
