// Package models defines the row types flowing through the enrichment pipeline.
//
// # Input rows
//
// An [InputRow] is one desired lookup read from the input table: artist, title, an optional year and the
// processed flag. Once Processed is true the row is never searched again.
//
// # Output rows
//
// An [OutputRow] is one resolved catalog track. Its TrackURL is the dedup key for the output table, so the same
// track is never appended twice even when several input rows resolve to it.
package models
