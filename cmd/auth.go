package main

import (
	"context"

	"github.com/desertthunder/spotfill/internal/services"
	"github.com/urfave/cli/v3"
)

// AuthCheck performs the client-credentials exchange and reports the token's expiry.
func (r *Runner) AuthCheck(ctx context.Context, cmd *cli.Command) error {
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

	r.logger.Info("checking credentials", "service", catalog.Name())
	if err := catalog.Authenticate(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Authenticated with %s\n", catalog.Name())
	if svc, ok := catalog.(*services.SpotifyService); ok {
		if tok := svc.Token(); tok != nil && !tok.Expiry.IsZero() {
			r.writePlain("Token expires: %s\n", tok.Expiry.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}
