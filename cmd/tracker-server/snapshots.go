package main

import (
	configsqlite "codetrack-backend/lib/configutil/sqlite"
	"codetrack-backend/services/snapshots"
	"codetrack-backend/services/snapshots/db"
)

type SnapshotsConfig struct {
	Database configsqlite.Struct `json:"database"`
}

func InitSnapshots(cfg SnapshotsConfig) (snapshots.Service, error) {
	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		return snapshots.Service{}, err
	}
	return snapshots.NewService(database), nil
}
