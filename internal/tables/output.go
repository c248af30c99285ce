package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/spotfill/internal/models"
)

// OutputTable is the append-only table of resolved tracks.
type OutputTable struct {
	path  string
	seen  map[string]struct{}
	count int
}

// OpenOutputTable opens the table at path, creating it with [models.OutputHeader] when it does not exist.
func OpenOutputTable(path string) (*OutputTable, error) {
	t := &OutputTable{path: path, seen: make(map[string]struct{})}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := t.create(); err != nil {
			return nil, err
		}
		return t, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat output table: %w", err)
	}

	if err := t.each(func(rec []string) {
		if len(rec) < 2 {
			return
		}
		id := rec[1]
		if !models.IsTrackURL(id) {
			return
		}
		if _, dup := t.seen[id]; !dup {
			t.seen[id] = struct{}{}
		}
		t.count++
	}); err != nil {
		return nil, err
	}

	return t, nil
}

// Path returns the file backing the table.
func (t *OutputTable) Path() string {
	return t.path
}

// Count returns the number of rows whose Track ID is a canonical track URL.
func (t *OutputTable) Count() int {
	return t.count
}

// Contains reports whether trackURL is already in the table.
func (t *OutputTable) Contains(trackURL string) bool {
	_, ok := t.seen[trackURL]
	return ok
}

// Append writes row unless its TrackURL is already present. Reports whether a row was written.
func (t *OutputTable) Append(row models.OutputRow) (bool, error) {
	if t.Contains(row.TrackURL) {
		return false, nil
	}

	f, err := os.OpenFile(t.path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open output table: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(row.Record()); err != nil {
		f.Close()
		return false, fmt.Errorf("failed to write output row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return false, fmt.Errorf("failed to flush output row: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to close output table: %w", err)
	}

	t.seen[row.TrackURL] = struct{}{}
	if models.IsTrackURL(row.TrackURL) {
		t.count++
	}
	return true, nil
}

// Rows reads every data row back from disk.
func (t *OutputTable) Rows() ([]models.OutputRow, error) {
	var (
		rows     []models.OutputRow
		parseErr error
	)
	err := t.each(func(rec []string) {
		if parseErr != nil {
			return
		}
		row, err := models.ParseOutputRecord(rec)
		if err != nil {
			parseErr = err
			return
		}
		rows = append(rows, row)
	})
	if err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse output row: %w", parseErr)
	}
	return rows, nil
}

func (t *OutputTable) create() error {
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output table: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(models.OutputHeader); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush output header: %w", err)
	}
	return f.Close()
}

// each calls fn for every record after the header row.
func (t *OutputTable) each(fn func(rec []string)) error {
	f, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("failed to open output table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read output table: %w", err)
		}
		if first {
			first = false
			continue
		}
		fn(rec)
	}
}
