package report

import "go.uber.org/atomic"

type TrackerErrors struct {
	VerifyTimeouts atomic.Uint64 `json:"verify_timeouts"`
	SubmitFailures atomic.Uint64 `json:"submit_failures"`
}

type TrackerState struct {
	AttemptsStarted   atomic.Int64 `json:"attempts_started"`
	AttemptsVerified  atomic.Int64 `json:"attempts_verified"`
	AttemptsNotMerged atomic.Int64 `json:"attempts_not_merged"`
	AttemptsFailed    atomic.Int64 `json:"attempts_failed"`
}

type TrackerReport struct {
	State  TrackerState  `json:"state"`
	Errors TrackerErrors `json:"errors"`
}
