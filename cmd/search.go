package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotfill/internal/models"
	"github.com/desertthunder/spotfill/internal/services"
	"github.com/desertthunder/spotfill/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search resolves a single artist/title pair the way the pipeline would, without touching any table.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	artist := cmd.StringArg("artist")
	title := cmd.StringArg("title")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if artist == "" {
		return fmt.Errorf("%w: artist is required", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if r.catalog == nil {
		if err := config.Validate(); err != nil {
			return err
		}
	}

	catalog, err := r.newCatalog(config)
	if err != nil {
		return err
	}
	if err := catalog.Authenticate(ctx); err != nil {
		return err
	}

	req := services.SearchRequest{Artist: artist, Title: title}
	r.logger.Info("searching spotify", "query", req.Query())

	res, err := catalog.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	track := res.First()
	fallback := false
	if track == nil && title != "" {
		r.logger.Info("no match, trying artist only", "query", req.ArtistOnly().Query())
		if res, err = catalog.Search(ctx, req.ArtistOnly()); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		track = res.First()
		fallback = true
	}

	if track == nil {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, req.Query())
	}

	if useJSON {
		return r.writeJSON(track, pretty)
	}

	artistInfo := track.PrimaryArtist()
	r.writePlain("Found track:\n\n")
	r.writePlain("Title: %s\n", track.Name)
	r.writePlain("Artist: %s (%s)\n", artistInfo.Name, artistInfo.ID)
	r.writePlain("Album: %s (%s)\n", track.Album.Name, track.Album.ID)
	if year, err := models.ReleaseYear(0, track.Album.ReleaseDate); err == nil {
		r.writePlain("Year: %d\n", year)
	}
	r.writePlain("Popularity: %d\n", track.Popularity)
	r.writePlain("URL: %s\n", models.TrackURL(track.ID))
	if fallback {
		r.writePlainln("Note: matched by artist only")
	}

	return nil
}
