package main

import (
	"flag"
	"net/http"

	"codetrack-backend/lib/configutil"
	"codetrack-backend/lib/serviceutil"
	"codetrack-backend/services/auth"
)

type Config struct {
	Port      int             `json:"port"`
	Auth      auth.Config     `json:"auth"`
	Tracker   TrackerConfig   `json:"tracker"`
	Snapshots SnapshotsConfig `json:"snapshots"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		serviceutil.Fatal("init auth", err)
	}

	mux := http.NewServeMux()

	snapshotService, err := InitSnapshots(cfg.Snapshots)
	if err != nil {
		serviceutil.Fatal("init snapshots", err)
	}
	err = InitTracker(ctx, mux, cfg.Tracker, verifier, snapshotService, *verbose)
	if err != nil {
		serviceutil.Fatal("init tracker", err)
	}

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
