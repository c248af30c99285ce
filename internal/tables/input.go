package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/spotfill/internal/models"
	"github.com/desertthunder/spotfill/internal/shared"
)

const (
	ColumnArtist    = "Artist"
	ColumnTitle     = "Title"
	ColumnYear      = "Year"
	ColumnProcessed = "PROCESSED"

	processedYes = "Yes"
	processedNo  = "No"
)

const utf8BOM = "\ufeff"

// InputTable is the file-backed table of wanted lookups.
type InputTable struct {
	path    string
	header  []string
	records [][]string

	artist, title, year, processed int

	// AddedProcessedColumn is true when opening the table had to add the PROCESSED column.
	AddedProcessedColumn bool
}

// OpenInputTable reads the table at path.
//
// Artist and Title columns are required. Year is optional. When PROCESSED is missing it is appended with "No" for
// every row and the file is rewritten before returning.
func OpenInputTable(path string) (*InputTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: input table %s is empty", shared.ErrMissingColumn, path)
		}
		return nil, fmt.Errorf("failed to read input header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read input rows: %w", err)
	}

	t := &InputTable{
		path:    path,
		header:  header,
		records: records,
		artist:  columnIndex(header, ColumnArtist),
		title:   columnIndex(header, ColumnTitle),
		year:    columnIndex(header, ColumnYear),
	}

	if t.artist < 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingColumn, ColumnArtist)
	}
	if t.title < 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingColumn, ColumnTitle)
	}

	t.processed = columnIndex(header, ColumnProcessed)
	if t.processed < 0 {
		t.header = append(t.header, ColumnProcessed)
		t.processed = len(t.header) - 1
		for i := range t.records {
			t.records[i] = pad(t.records[i], len(t.header))
			t.records[i][t.processed] = processedNo
		}
		if err := t.save(); err != nil {
			return nil, err
		}
		t.AddedProcessedColumn = true
	}

	return t, nil
}

// Path returns the file backing the table.
func (t *InputTable) Path() string {
	return t.path
}

// Len returns the number of data rows.
func (t *InputTable) Len() int {
	return len(t.records)
}

// Rows returns every row in table order.
//
// Year cells that are not integers are treated as blank.
func (t *InputTable) Rows() []models.InputRow {
	rows := make([]models.InputRow, 0, len(t.records))
	for i := range t.records {
		rows = append(rows, t.row(i))
	}
	return rows
}

// Pending returns rows not yet processed, preserving table order.
func (t *InputTable) Pending() []models.InputRow {
	var rows []models.InputRow
	for i := range t.records {
		if row := t.row(i); !row.Processed {
			rows = append(rows, row)
		}
	}
	return rows
}

// ProcessedCount returns how many rows carry the processed flag.
func (t *InputTable) ProcessedCount() int {
	n := 0
	for i := range t.records {
		if t.row(i).Processed {
			n++
		}
	}
	return n
}

// MarkProcessed flips the flag for the row at index and rewrites the table.
func (t *InputTable) MarkProcessed(index int) error {
	if index < 0 || index >= len(t.records) {
		return fmt.Errorf("%w: index %d", shared.ErrRowNotFound, index)
	}

	t.records[index] = pad(t.records[index], len(t.header))
	prev := t.records[index][t.processed]
	t.records[index][t.processed] = processedYes

	if err := t.save(); err != nil {
		t.records[index][t.processed] = prev
		return err
	}
	return nil
}

func (t *InputTable) row(i int) models.InputRow {
	rec := t.records[i]
	year, _ := models.ParseYear(cell(rec, t.year))
	return models.InputRow{
		Index:     i,
		Artist:    strings.TrimSpace(cell(rec, t.artist)),
		Title:     strings.TrimSpace(cell(rec, t.title)),
		Year:      year,
		Processed: parseProcessed(cell(rec, t.processed)),
	}
}

// save rewrites the whole table via a temp file in the same directory and an atomic rename.
func (t *InputTable) save() error {
	dir := filepath.Dir(t.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(t.path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp table: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(t.header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write input header: %w", err)
	}
	if err := w.WriteAll(t.records); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write input rows: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync input table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close input table: %w", err)
	}

	if err := os.Rename(tmpName, t.path); err != nil {
		return fmt.Errorf("failed to replace input table: %w", err)
	}
	return nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func pad(rec []string, n int) []string {
	for len(rec) < n {
		rec = append(rec, "")
	}
	return rec
}

func parseProcessed(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true", "1":
		return true
	default:
		return false
	}
}
