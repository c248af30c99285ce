// Package ui implements a terminal progress view for enrichment runs using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [RunView] : Spinner, progress bar, current track, retrieved count and ETA
//  2. [ResultView] : Outcome counters and the rows that were deferred or abandoned
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the [tasks.Enricher], providing non-blocking status reporting during runs.
//
// Pressing q during a run cancels it after the current track; the run's result stays available through [Model.Result].
package ui
