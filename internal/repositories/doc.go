// Package repositories implements SQLite bookkeeping for the enrichment pipeline.
//
// The CSV tables remain the source of truth for which rows are done and which tracks were found. The database only
// keeps what the tables cannot express:
//   - [AttemptRepository] : failed-search counters keyed by normalized artist/title, used to stop retrying a row
//     that keeps failing across runs
//   - [RunRepository] : one record per enrich invocation with its budget and outcome counters
//
// Schema comes from the embedded migrations in the shared package.
package repositories
