package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"codetrack-backend/services/tracker/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("tracker/external")

// Outcome classifies one external scraper run. OutcomeKilled is
// deliberately ambiguous: the process may have finished its store write
// before the timeout fired, so the caller has to re-read the store
// before declaring failure.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeSoftFailure Outcome = "soft_failure"
	OutcomeHardFailure Outcome = "hard_failure"
	OutcomeKilled      Outcome = "killed"
)

// The external scrapers are expected to emit exactly one result payload
// between these marker lines on stdout. That block is the authoritative
// result channel; the prose markers below are only honored for legacy
// scraper builds that predate it.
const (
	resultStartMarker = "CODETRACK_RESULT_START"
	resultEndMarker   = "CODETRACK_RESULT_END"
)

// grace period between killing the scraper process and forcibly
// closing its pipes
const killWaitDelay = 5 * time.Second

var legacySuccessMarkers = []string{
	"successfully",
	"update complete",
	"completed",
}

type PayloadError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ResultPayload struct {
	Status string          `json:"status"`
	Error  *PayloadError   `json:"error,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type Result struct {
	Outcome  Outcome
	ExitCode int
	Stdout   string
	Stderr   string
	// Payload is non-nil when the process emitted a marker-delimited
	// result block.
	Payload *ResultPayload
	Err     error
}

type Config struct {
	// Command is the path to the external scraper entrypoint. An empty
	// command disables the external path entirely.
	Command string `json:"command"`
	// seconds; zero means the defaults below
	DefaultTimeoutSec int `json:"default_timeout_sec"`
	BrowserTimeoutSec int `json:"browser_timeout_sec"`
}

type Runner struct {
	cfg Config
}

func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg}
}

func (r *Runner) Enabled() bool {
	return r != nil && r.cfg.Command != ""
}

// Timeout returns the per-platform budget. Codolio is backed by a full
// browser session and routinely needs more than a minute.
func (r *Runner) Timeout(platform store.Platform) time.Duration {
	if platform == store.PlatformCodolio {
		if r.cfg.BrowserTimeoutSec > 0 {
			return time.Duration(r.cfg.BrowserTimeoutSec) * time.Second
		}
		return time.Second * 180
	}
	if r.cfg.DefaultTimeoutSec > 0 {
		return time.Duration(r.cfg.DefaultTimeoutSec) * time.Second
	}
	return time.Second * 90
}

// Run invokes the external scraper for one platform and classifies the
// outcome. It never returns stats itself: on success the process has
// already written results to the shared store and the caller re-reads
// the record.
func (r *Runner) Run(ctx context.Context, platform store.Platform, studentID, username string) Result {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("platform", string(platform)),
		attribute.String("student_id", studentID),
		attribute.String("username", username),
	)

	runCtx, cancel := context.WithTimeout(ctx, r.Timeout(platform))
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.cfg.Command, string(platform), studentID, username)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// killing the entrypoint leaves its children (browser processes)
	// holding the stdout pipe; without a wait delay Run would block
	// until they exit on their own
	cmd.WaitDelay = killWaitDelay

	err := cmd.Run()

	result := Result{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Payload: parsePayload(stdout.String()),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		// no exit code to trust; completion state is unknown
		result.Outcome = OutcomeKilled
		result.Err = fmt.Errorf("external scraper killed after %s", r.Timeout(platform))
		span.SetStatus(codes.Error, "killed by timeout")
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.Outcome = OutcomeHardFailure
		result.Err = hardFailureError(result, exitErr)
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, "non-zero exit")
		return result
	}
	if err != nil {
		// failed to even start the process
		result.Outcome = OutcomeHardFailure
		result.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start")
		return result
	}

	if result.Payload != nil {
		switch result.Payload.Status {
		case "ok":
			result.Outcome = OutcomeSuccess
		case "error":
			result.Outcome = OutcomeHardFailure
			result.Err = hardFailureError(result, nil)
			span.SetStatus(codes.Error, "structured error payload")
		default:
			result.Outcome = OutcomeSoftFailure
			result.Err = fmt.Errorf("unknown result status %q", result.Payload.Status)
		}
		return result
	}

	// legacy fallback: sniff stdout for a known success phrase
	if containsSuccessMarker(result.Stdout) {
		result.Outcome = OutcomeSuccess
		return result
	}
	result.Outcome = OutcomeSoftFailure
	result.Err = fmt.Errorf("scraping may have failed: no result payload and no success marker")
	span.SetStatus(codes.Error, "no success signal")
	return result
}

func hardFailureError(result Result, exitErr *exec.ExitError) error {
	if result.Payload != nil && result.Payload.Error != nil {
		return fmt.Errorf("%s: %s", result.Payload.Error.Code, result.Payload.Error.Message)
	}
	tail := strings.TrimSpace(result.Stderr)
	if len(tail) > 300 {
		tail = tail[len(tail)-300:]
	}
	if tail != "" {
		return fmt.Errorf("external scraper failed (exit %d): %s", result.ExitCode, tail)
	}
	if exitErr != nil {
		return exitErr
	}
	return fmt.Errorf("external scraper failed (exit %d)", result.ExitCode)
}

func containsSuccessMarker(stdout string) bool {
	lower := strings.ToLower(stdout)
	for _, marker := range legacySuccessMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func parsePayload(stdout string) *ResultPayload {
	start := strings.Index(stdout, resultStartMarker)
	if start < 0 {
		return nil
	}
	rest := stdout[start+len(resultStartMarker):]
	end := strings.Index(rest, resultEndMarker)
	if end < 0 {
		return nil
	}

	var payload ResultPayload
	err := json.Unmarshal([]byte(strings.TrimSpace(rest[:end])), &payload)
	if err != nil {
		return nil
	}
	return &payload
}
