package models

import (
	"slices"
	"testing"
)

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		name        string
		inputYear   int
		releaseDate string
		want        int
		wantErr     bool
	}{
		{name: "blank year resolves from catalog", inputYear: 0, releaseDate: "1994-03-15", want: 1994},
		{name: "input year wins over release date", inputYear: 2001, releaseDate: "1994-03-15", want: 2001},
		{name: "year precision release date", inputYear: 0, releaseDate: "1987", want: 1987},
		{name: "month precision release date", inputYear: 0, releaseDate: "1979-11", want: 1979},
		{name: "short release date", inputYear: 0, releaseDate: "19", wantErr: true},
		{name: "garbage release date", inputYear: 0, releaseDate: "abcd-01-01", wantErr: true},
		{name: "input year ignores garbage", inputYear: 2010, releaseDate: "", want: 2010},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReleaseYear(tt.inputYear, tt.releaseDate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReleaseYear() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ReleaseYear() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "  ", want: 0},
		{in: "2001", want: 2001},
		{in: " 1999 ", want: 1999},
		{in: "nineteen", wantErr: true},
		{in: "-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseYear(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseYear(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseYear(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestOutputRow(t *testing.T) {
	row := OutputRow{
		Year:       1994,
		TrackURL:   TrackURL("abc123"),
		TrackName:  "Song",
		ArtistID:   "art1",
		ArtistName: "Artist",
		AlbumID:    "alb1",
		Popularity: 42,
	}

	rec := row.Record()
	want := []string{"1994", "https://open.spotify.com/track/abc123", "Song", "art1", "Artist", "alb1", "42"}
	if !slices.Equal(rec, want) {
		t.Errorf("Record() = %v, want %v", rec, want)
	}

	parsed, err := ParseOutputRecord(rec)
	if err != nil {
		t.Fatalf("ParseOutputRecord() error = %v", err)
	}
	if parsed != row {
		t.Errorf("ParseOutputRecord() = %+v, want %+v", parsed, row)
	}

	if _, err := ParseOutputRecord([]string{"1994"}); err == nil {
		t.Error("expected error for short record")
	}

	if !IsTrackURL(row.TrackURL) {
		t.Error("expected canonical URL to be recognized")
	}
	if IsTrackURL("Track ID") {
		t.Error("header cell should not be a track URL")
	}
}

func TestInputRow(t *testing.T) {
	row := InputRow{Artist: "  The  Band ", Title: "Some SONG"}
	if got := row.Key(); got != "some song|the band" {
		t.Errorf("Key() = %q", got)
	}
	if got := (InputRow{Artist: "A", Title: "B", Year: 2000}).String(); got != "A - B (2000)" {
		t.Errorf("String() = %q", got)
	}
	if got := (InputRow{Artist: "A", Title: "B"}).String(); got != "A - B" {
		t.Errorf("String() = %q", got)
	}
}
