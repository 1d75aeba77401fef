package external

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	stdout := `fetching profile...
CODETRACK_RESULT_START
{"status": "ok", "data": {"rating": 1612}}
CODETRACK_RESULT_END
done
`
	payload := parsePayload(stdout)
	require.NotNil(t, payload)
	require.Equal(t, "ok", payload.Status)
	require.Nil(t, payload.Error)

	require.Nil(t, parsePayload("no markers here"))
	require.Nil(t, parsePayload("CODETRACK_RESULT_START\n{not json}\nCODETRACK_RESULT_END"))
	require.Nil(t, parsePayload("CODETRACK_RESULT_START\n{\"status\":\"ok\"}"))
}

func TestParsePayloadError(t *testing.T) {
	stdout := "CODETRACK_RESULT_START\n" +
		`{"status": "error", "error": {"code": "PROFILE_PRIVATE", "message": "profile is private"}}` +
		"\nCODETRACK_RESULT_END"
	payload := parsePayload(stdout)
	require.NotNil(t, payload)
	require.Equal(t, "error", payload.Status)
	require.NotNil(t, payload.Error)
	require.Equal(t, "PROFILE_PRIVATE", payload.Error.Code)
}

func TestContainsSuccessMarker(t *testing.T) {
	require.True(t, containsSuccessMarker("Profile updated SUCCESSFULLY."))
	require.True(t, containsSuccessMarker("update complete\n"))
	require.True(t, containsSuccessMarker("run Completed in 4s"))
	require.False(t, containsSuccessMarker("success rate: 0%"))
	require.False(t, containsSuccessMarker(""))
}

func TestHardFailureErrorPrefersPayload(t *testing.T) {
	result := Result{
		ExitCode: 2,
		Stderr:   "Traceback (most recent call last): ...",
		Payload: &ResultPayload{
			Status: "error",
			Error:  &PayloadError{Code: "RATE_LIMITED", Message: "try again later"},
		},
	}
	err := hardFailureError(result, nil)
	require.EqualError(t, err, "RATE_LIMITED: try again later")

	result.Payload = nil
	err = hardFailureError(result, nil)
	require.Contains(t, err.Error(), "exit 2")
	require.Contains(t, err.Error(), "Traceback")
}

func TestRunReturnsPromptlyWhenChildrenSurviveKill(t *testing.T) {
	script := filepath.Join(t.TempDir(), "scraper.sh")
	// the orphaned background sleep inherits stdout and keeps the pipe
	// open long past the timeout
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 30 &\nsleep 30\n"), 0o755))

	runner := NewRunner(Config{Command: script, DefaultTimeoutSec: 1})
	start := time.Now()
	result := runner.Run(context.Background(), "github", "65f000000000000000000001", "alice")

	require.Equal(t, OutcomeKilled, result.Outcome)
	require.Error(t, result.Err)
	require.Less(t, time.Since(start), killWaitDelay+time.Second*5)
}

func TestTimeouts(t *testing.T) {
	runner := NewRunner(Config{Command: "/usr/bin/true"})
	require.Equal(t, "1m30s", runner.Timeout("leetcode").String())
	require.Equal(t, "3m0s", runner.Timeout("codolio").String())

	runner = NewRunner(Config{Command: "/usr/bin/true", DefaultTimeoutSec: 10, BrowserTimeoutSec: 20})
	require.Equal(t, "10s", runner.Timeout("github").String())
	require.Equal(t, "20s", runner.Timeout("codolio").String())

	require.False(t, NewRunner(Config{}).Enabled())
	require.True(t, runner.Enabled())
}
