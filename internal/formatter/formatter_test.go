package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotfill/internal/models"
	"github.com/desertthunder/spotfill/internal/shared"
	tu "github.com/desertthunder/spotfill/internal/testing"
)

var rows = []models.OutputRow{
	{
		Year:       1987,
		TrackURL:   "https://open.spotify.com/track/t1",
		TrackName:  "Arahja",
		ArtistID:   "a1",
		ArtistName: "Kult",
		AlbumID:    "al1",
		Popularity: 55,
	},
	{
		TrackURL:   "https://open.spotify.com/track/t2",
		TrackName:  "Song [Live]",
		ArtistID:   "a2",
		ArtistName: "Perfect",
		AlbumID:    "al2",
		Popularity: 60,
	},
}

func TestExporters(t *testing.T) {
	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(rows, "Resolved tracks")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "# Resolved tracks\n") {
			t.Errorf("Markdown missing title, got: %s", output)
		}
		if !strings.Contains(output, "**Tracks**: 2") {
			t.Errorf("Markdown missing track count")
		}
		if !strings.Contains(output, "1. Kult - [Arahja](https://open.spotify.com/track/t1) (1987)") {
			t.Errorf("Markdown missing first track, got: %s", output)
		}
		if !strings.Contains(output, `2. Perfect - [Song \[Live\]](https://open.spotify.com/track/t2)`+"\n") {
			t.Errorf("Markdown should escape brackets and omit unknown year, got: %s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(rows)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		want := "Tracks: 2\n\n1. Kult - Arahja\n2. Perfect - Song [Live]\n"
		if string(data) != want {
			t.Errorf("ExportToText() = %q, want %q", data, want)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(rows, false)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(decoded))
		}
		if _, ok := decoded[1]["year"]; ok {
			t.Error("expected unknown year to be omitted")
		}
		if decoded[0]["url"] != "https://open.spotify.com/track/t1" {
			t.Errorf("unexpected url %v", decoded[0]["url"])
		}
	})

	t.Run("empty rows", func(t *testing.T) {
		data, err := ExportToJSON(nil, false)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		if string(data) != "[]\n" {
			t.Errorf("expected empty array, got %q", data)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"md", Markdown, false},
		{"Markdown", Markdown, false},
		{"txt", Text, false},
		{"text", Text, false},
		{"JSON", JSON, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("writes to the given path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "tracks.md")

		got, err := WriteExport(rows, Markdown, path, "Resolved tracks")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected path %s, got %s", path, got)
		}

		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "# Resolved tracks") {
			t.Error("export file missing title")
		}
	})

	t.Run("defaults the filename from the format", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		got, err := WriteExport(rows, Text, "", "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != "results.txt" {
			t.Errorf("expected results.txt, got %s", got)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "results.txt"))
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		if _, err := WriteExport(rows, Format("xml"), filepath.Join(t.TempDir(), "x"), ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
