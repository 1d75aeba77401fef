package tracker

import (
	"time"

	"codetrack-backend/services/tracker/store"
)

// PlatformState tracks one platform's progress through a refresh
// request. Terminal states feed the reconciler; a platform never
// re-enters StateScraping within the same request.
type PlatformState string

const (
	StatePending     PlatformState = "pending"
	StateResolving   PlatformState = "resolving_identifier"
	StateScraping    PlatformState = "scraping"
	StateSuccess     PlatformState = "success"
	StateSoftFailure PlatformState = "soft_failure"
	StateHardFailure PlatformState = "hard_failure"
	StateSkipped     PlatformState = "skipped"
)

// PlatformOutcome is the terminal result of one platform attempt.
// Exactly one of Stats, Err is set for success/failure; skipped
// outcomes carry neither. StoreWritten marks external-process runs
// where the process wrote the store itself and the reconciler must not
// overwrite that platform's sub-document.
type PlatformOutcome struct {
	Platform     store.Platform
	State        PlatformState
	Username     string
	Stats        store.Stats
	StoreWritten bool
	Err          error
}

type PlatformFailure struct {
	Platform store.Platform `json:"platform"`
	Error    string         `json:"error"`
}

// RefreshSummary reports partial success to the caller: the HTTP
// response stays "ok" even when individual platforms failed.
type RefreshSummary struct {
	Successful []store.Platform  `json:"successful"`
	Skipped    []store.Platform  `json:"skipped"`
	Failed     []PlatformFailure `json:"failed"`
	RefreshedAt time.Time        `json:"refreshedAt"`
}

func (s RefreshSummary) AllFailed() bool {
	return len(s.Successful) == 0 && len(s.Skipped) == 0 && len(s.Failed) > 0
}
