// Package tables implements the two CSV files that hold the pipeline's durable state.
//
// # Input table
//
// [InputTable] holds the wanted (Artist, Title, Year) rows plus a PROCESSED column. The column is added, with "No"
// for every existing row, the first time a table without it is opened. Marking a row processed rewrites the whole
// file through a temporary file and a rename, so an interrupted write never truncates the table.
//
// # Output table
//
// [OutputTable] is append-only. It is created with its header when missing and keeps an in-memory index of the
// Track ID column so duplicate checks do not rescan the file for every row.
package tables
