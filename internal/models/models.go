package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/spotfill/internal/shared"
)

// TrackURLPrefix is the canonical prefix of every track identifier written to the output table.
const TrackURLPrefix = "https://open.spotify.com/track/"

// InputRow is a pending (artist, title, year) lookup.
type InputRow struct {
	Index     int    // Position in the input table, excluding the header
	Artist    string // Artist name as written by the operator
	Title     string // Track title
	Year      int    // Release year, 0 when unknown
	Processed bool   // True once the row was resolved or given up on
}

// Key returns the normalized artist/title key used by attempt bookkeeping.
func (r InputRow) Key() string {
	return shared.NormalizeTrackKey(r.Title, r.Artist)
}

func (r InputRow) String() string {
	if r.Year == 0 {
		return fmt.Sprintf("%s - %s", r.Artist, r.Title)
	}
	return fmt.Sprintf("%s - %s (%d)", r.Artist, r.Title, r.Year)
}

// OutputRow is a resolved catalog track.
type OutputRow struct {
	Year       int
	TrackURL   string
	TrackName  string
	ArtistID   string
	ArtistName string
	AlbumID    string
	Popularity int
}

// OutputHeader is the header row of the output table.
var OutputHeader = []string{"Year", "Track ID", "Track Name", "Artist ID", "Artist Name", "Album ID", "Popularity"}

// Record converts the row into output table column order.
func (r OutputRow) Record() []string {
	return []string{
		strconv.Itoa(r.Year),
		r.TrackURL,
		r.TrackName,
		r.ArtistID,
		r.ArtistName,
		r.AlbumID,
		strconv.Itoa(r.Popularity),
	}
}

// ParseOutputRecord is the inverse of [OutputRow.Record]. Numeric columns that fail to parse become 0.
func ParseOutputRecord(rec []string) (OutputRow, error) {
	if len(rec) < len(OutputHeader) {
		return OutputRow{}, fmt.Errorf("expected %d columns, got %d", len(OutputHeader), len(rec))
	}
	year, _ := strconv.Atoi(strings.TrimSpace(rec[0]))
	popularity, _ := strconv.Atoi(strings.TrimSpace(rec[6]))
	return OutputRow{
		Year:       year,
		TrackURL:   rec[1],
		TrackName:  rec[2],
		ArtistID:   rec[3],
		ArtistName: rec[4],
		AlbumID:    rec[5],
		Popularity: popularity,
	}, nil
}

// TrackURL builds the canonical track identifier for a catalog id.
func TrackURL(id string) string {
	return TrackURLPrefix + id
}

// IsTrackURL reports whether s is a canonical track identifier.
func IsTrackURL(s string) bool {
	return strings.HasPrefix(s, TrackURLPrefix)
}

// ParseYear parses an input table year cell. Blank cells are 0 with no error.
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 0 {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return year, nil
}

// ReleaseYear picks the output year: the input year when set, otherwise the first four characters of releaseDate.
//
// Catalog release dates come in "YYYY", "YYYY-MM" or "YYYY-MM-DD" precision.
func ReleaseYear(inputYear int, releaseDate string) (int, error) {
	if inputYear != 0 {
		return inputYear, nil
	}
	if len(releaseDate) < 4 {
		return 0, fmt.Errorf("release date %q too short", releaseDate)
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0, fmt.Errorf("release date %q: %w", releaseDate, err)
	}
	return year, nil
}
