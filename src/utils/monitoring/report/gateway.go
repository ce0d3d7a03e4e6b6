package report

import "go.uber.org/atomic"

type GatewayErrors struct {
	CallFailures         atomic.Uint64 `json:"call_failures"`
	SubmitFailures       atomic.Uint64 `json:"submit_failures"`
	ConfirmationFailures atomic.Uint64 `json:"confirmation_failures"`
	EventDecodeFailures  atomic.Uint64 `json:"event_decode_failures"`
}

type GatewayState struct {
	CallsMade             atomic.Int64 `json:"calls_made"`
	TransactionsSubmitted atomic.Int64 `json:"transactions_submitted"`
	TransactionsConfirmed atomic.Int64 `json:"transactions_confirmed"`
	EventsDelivered       atomic.Int64 `json:"events_delivered"`
	LastPolledBlock       atomic.Int64 `json:"last_polled_block"`

	AverageEventsDeliveredPerMinute atomic.Float64 `json:"average_events_delivered_per_minute"`
}

type GatewayReport struct {
	State  GatewayState  `json:"state"`
	Errors GatewayErrors `json:"errors"`
}
