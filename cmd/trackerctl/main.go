package main

import (
	"context"

	"codetrack-backend/cmd/trackerctl/commands"
	"codetrack-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "trackerctl")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
