package main

import (
	"context"
	"net/http"

	configmongo "codetrack-backend/lib/configutil/mongodb"
	"codetrack-backend/lib/restyutil"
	"codetrack-backend/services/auth"
	"codetrack-backend/services/snapshots"
	"codetrack-backend/services/tracker"
	"codetrack-backend/services/tracker/external"
	"codetrack-backend/services/tracker/scrape"
	"codetrack-backend/services/tracker/server"
	"codetrack-backend/services/tracker/store"
)

type TrackerConfig struct {
	Database configmongo.Struct `json:"database"`
	Scraping tracker.Config     `json:"scraping"`
}

func InitTracker(
	ctx context.Context,
	mux *http.ServeMux,
	cfg TrackerConfig,
	verifier *auth.Verifier,
	snapshotService snapshots.Service,
	verbose bool,
) error {
	database, err := cfg.Database.OpenDatabase(ctx)
	if err != nil {
		return err
	}
	studentStore := store.NewMongoStore(database)

	var instrumentOutput restyutil.InstrumentOutput
	if verbose {
		instrumentOutput = restyutil.NewFilesystemOutput(".dev/resty/scrape")
	}
	scrapers := scrape.NewScrapers(scrape.ClientOptions{
		UserAgent:        cfg.Scraping.UserAgent,
		InstrumentOutput: instrumentOutput,
	})

	service := tracker.NewService(
		studentStore,
		scrapers,
		external.NewRunner(cfg.Scraping.External),
		snapshotService,
		cfg.Scraping,
	)
	service.StartRefreshSweep(ctx)

	server.NewServer(service, verifier, snapshotService).Register(mux)
	return nil
}
