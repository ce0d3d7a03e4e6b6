package report

import "go.uber.org/atomic"

type StoreErrors struct {
	UpsertFailures atomic.Uint64 `json:"upsert_failures"`
	EventsDropped  atomic.Uint64 `json:"events_dropped"`
}

type StoreState struct {
	RecordsUpserted atomic.Int64 `json:"records_upserted"`
}

type StoreReport struct {
	State  StoreState  `json:"state"`
	Errors StoreErrors `json:"errors"`
}
