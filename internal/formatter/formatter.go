// package formatter provides functions to export resolved tracks to various formats (Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/spotfill/internal/models"
	"github.com/desertthunder/spotfill/internal/shared"
)

// Format names an export format.
type Format string

const (
	Markdown Format = "md"
	Text     Format = "txt"
	JSON     Format = "json"
)

// ParseFormat accepts md, markdown, txt, text or json, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// jsonTrack is the exported shape of an output row.
type jsonTrack struct {
	Year       int    `json:"year,omitempty"`
	URL        string `json:"url"`
	Name       string `json:"name"`
	ArtistID   string `json:"artist_id"`
	ArtistName string `json:"artist_name"`
	AlbumID    string `json:"album_id"`
	Popularity int    `json:"popularity"`
}

// ExportToMarkdown renders rows as a numbered Markdown list linking each track
func ExportToMarkdown(rows []models.OutputRow, title string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(rows))

	buf.WriteString("## Tracks\n\n")
	for i, row := range rows {
		yearPart := ""
		if row.Year > 0 {
			yearPart = fmt.Sprintf(" (%d)", row.Year)
		}
		fmt.Fprintf(&buf, "%d. %s - [%s](%s)%s\n", i+1, row.ArtistName, escapeMarkdown(row.TrackName), row.TrackURL, yearPart)
	}

	return buf.Bytes(), nil
}

// ExportToText converts rows to plain text format
func ExportToText(rows []models.OutputRow) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(rows))
	for i, row := range rows {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, row.ArtistName, row.TrackName)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts rows to a JSON array
func ExportToJSON(rows []models.OutputRow, pretty bool) ([]byte, error) {
	tracks := make([]jsonTrack, len(rows))
	for i, row := range rows {
		tracks[i] = jsonTrack{
			Year:       row.Year,
			URL:        row.TrackURL,
			Name:       row.TrackName,
			ArtistID:   row.ArtistID,
			ArtistName: row.ArtistName,
			AlbumID:    row.AlbumID,
			Popularity: row.Popularity,
		}
	}

	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(tracks, "", "  ")
	} else {
		data, err = json.Marshal(tracks)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Render produces rows in format.
func Render(rows []models.OutputRow, format Format, title string) ([]byte, error) {
	switch format {
	case Markdown:
		return ExportToMarkdown(rows, title)
	case Text:
		return ExportToText(rows)
	case JSON:
		return ExportToJSON(rows, true)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders rows and writes them to path.
//
// Defaults to results.{format} in the current directory. Parent directories are created as needed.
func WriteExport(rows []models.OutputRow, format Format, path, title string) (string, error) {
	if path == "" {
		path = "results." + string(format)
	}

	data, err := Render(rows, format, title)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func escapeMarkdown(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}
