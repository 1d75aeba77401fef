package commands

import (
	"context"
	"fmt"
	"os"

	"codetrack-backend/lib/configutil"
	configmongo "codetrack-backend/lib/configutil/mongodb"
	"codetrack-backend/services/auth"
	"codetrack-backend/services/tracker"
	"codetrack-backend/services/tracker/external"
	"codetrack-backend/services/tracker/scrape"
	"codetrack-backend/services/tracker/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trackerctl",
	Short: "trackerctl administers student records and triggers refreshes.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// the cli reads the same config.json5 the server does, so it always
// points at the same deployment
type Config struct {
	Auth    auth.Config `json:"auth"`
	Tracker struct {
		Database configmongo.Struct `json:"database"`
		Scraping tracker.Config     `json:"scraping"`
	} `json:"tracker"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	return cfg
}

func openStore(ctx context.Context) (store.Store, Config) {
	cfg := readConfig()
	database, err := cfg.Tracker.Database.OpenDatabase(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	return store.NewMongoStore(database), cfg
}

func openService(ctx context.Context) *tracker.Service {
	studentStore, cfg := openStore(ctx)
	return tracker.NewService(
		studentStore,
		scrape.NewScrapers(scrape.ClientOptions{UserAgent: cfg.Tracker.Scraping.UserAgent}),
		external.NewRunner(cfg.Tracker.Scraping.External),
		nil,
		cfg.Tracker.Scraping,
	)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
