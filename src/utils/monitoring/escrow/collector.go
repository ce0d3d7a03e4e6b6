package monitor_escrow

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Errors
	CallFailures          *prometheus.Desc
	SubmitFailures        *prometheus.Desc
	ConfirmationFailures  *prometheus.Desc
	EventDecodeFailures   *prometheus.Desc
	VerifyTimeouts        *prometheus.Desc
	TrackerSubmitFailures *prometheus.Desc
	UpsertFailures        *prometheus.Desc
	EventsDropped         *prometheus.Desc

	// State
	CallsMade                       *prometheus.Desc
	TransactionsSubmitted           *prometheus.Desc
	TransactionsConfirmed           *prometheus.Desc
	EventsDelivered                 *prometheus.Desc
	LastPolledBlock                 *prometheus.Desc
	AverageEventsDeliveredPerMinute *prometheus.Desc
	AttemptsStarted                 *prometheus.Desc
	AttemptsVerified                *prometheus.Desc
	AttemptsNotMerged               *prometheus.Desc
	AttemptsFailed                  *prometheus.Desc
	EventsForwarded                 *prometheus.Desc
	RecordsUpserted                 *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		// Errors
		CallFailures:          prometheus.NewDesc("gateway_call_failures", "", nil, nil),
		SubmitFailures:        prometheus.NewDesc("gateway_submit_failures", "", nil, nil),
		ConfirmationFailures:  prometheus.NewDesc("gateway_confirmation_failures", "", nil, nil),
		EventDecodeFailures:   prometheus.NewDesc("gateway_event_decode_failures", "", nil, nil),
		VerifyTimeouts:        prometheus.NewDesc("tracker_verify_timeouts", "", nil, nil),
		TrackerSubmitFailures: prometheus.NewDesc("tracker_submit_failures", "", nil, nil),
		UpsertFailures:        prometheus.NewDesc("store_upsert_failures", "", nil, nil),
		EventsDropped:         prometheus.NewDesc("store_events_dropped", "", nil, nil),

		// State
		CallsMade:                       prometheus.NewDesc("gateway_calls_made", "", nil, nil),
		TransactionsSubmitted:           prometheus.NewDesc("gateway_transactions_submitted", "", nil, nil),
		TransactionsConfirmed:           prometheus.NewDesc("gateway_transactions_confirmed", "", nil, nil),
		EventsDelivered:                 prometheus.NewDesc("gateway_events_delivered", "", nil, nil),
		LastPolledBlock:                 prometheus.NewDesc("gateway_last_polled_block", "", nil, nil),
		AverageEventsDeliveredPerMinute: prometheus.NewDesc("gateway_average_events_delivered_per_minute", "", nil, nil),
		AttemptsStarted:                 prometheus.NewDesc("tracker_attempts_started", "", nil, nil),
		AttemptsVerified:                prometheus.NewDesc("tracker_attempts_verified", "", nil, nil),
		AttemptsNotMerged:               prometheus.NewDesc("tracker_attempts_not_merged", "", nil, nil),
		AttemptsFailed:                  prometheus.NewDesc("tracker_attempts_failed", "", nil, nil),
		EventsForwarded:                 prometheus.NewDesc("listener_events_forwarded", "", nil, nil),
		RecordsUpserted:                 prometheus.NewDesc("store_records_upserted", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Run
	ch <- self.UpForSeconds

	// Errors
	ch <- self.CallFailures
	ch <- self.SubmitFailures
	ch <- self.ConfirmationFailures
	ch <- self.EventDecodeFailures
	ch <- self.VerifyTimeouts
	ch <- self.TrackerSubmitFailures
	ch <- self.UpsertFailures
	ch <- self.EventsDropped

	// State
	ch <- self.CallsMade
	ch <- self.TransactionsSubmitted
	ch <- self.TransactionsConfirmed
	ch <- self.EventsDelivered
	ch <- self.LastPolledBlock
	ch <- self.AverageEventsDeliveredPerMinute
	ch <- self.AttemptsStarted
	ch <- self.AttemptsVerified
	ch <- self.AttemptsNotMerged
	ch <- self.AttemptsFailed
	ch <- self.EventsForwarded
	ch <- self.RecordsUpserted
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	// Run
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.CallFailures, prometheus.CounterValue, float64(self.monitor.Report.Gateway.Errors.CallFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.SubmitFailures, prometheus.CounterValue, float64(self.monitor.Report.Gateway.Errors.SubmitFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ConfirmationFailures, prometheus.CounterValue, float64(self.monitor.Report.Gateway.Errors.ConfirmationFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventDecodeFailures, prometheus.CounterValue, float64(self.monitor.Report.Gateway.Errors.EventDecodeFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.VerifyTimeouts, prometheus.CounterValue, float64(self.monitor.Report.Tracker.Errors.VerifyTimeouts.Load()))
	ch <- prometheus.MustNewConstMetric(self.TrackerSubmitFailures, prometheus.CounterValue, float64(self.monitor.Report.Tracker.Errors.SubmitFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.UpsertFailures, prometheus.CounterValue, float64(self.monitor.Report.Store.Errors.UpsertFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsDropped, prometheus.CounterValue, float64(self.monitor.Report.Store.Errors.EventsDropped.Load()))

	// State
	ch <- prometheus.MustNewConstMetric(self.CallsMade, prometheus.CounterValue, float64(self.monitor.Report.Gateway.State.CallsMade.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransactionsSubmitted, prometheus.CounterValue, float64(self.monitor.Report.Gateway.State.TransactionsSubmitted.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransactionsConfirmed, prometheus.CounterValue, float64(self.monitor.Report.Gateway.State.TransactionsConfirmed.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsDelivered, prometheus.CounterValue, float64(self.monitor.Report.Gateway.State.EventsDelivered.Load()))
	ch <- prometheus.MustNewConstMetric(self.LastPolledBlock, prometheus.GaugeValue, float64(self.monitor.Report.Gateway.State.LastPolledBlock.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageEventsDeliveredPerMinute, prometheus.GaugeValue, self.monitor.Report.Gateway.State.AverageEventsDeliveredPerMinute.Load())
	ch <- prometheus.MustNewConstMetric(self.AttemptsStarted, prometheus.CounterValue, float64(self.monitor.Report.Tracker.State.AttemptsStarted.Load()))
	ch <- prometheus.MustNewConstMetric(self.AttemptsVerified, prometheus.CounterValue, float64(self.monitor.Report.Tracker.State.AttemptsVerified.Load()))
	ch <- prometheus.MustNewConstMetric(self.AttemptsNotMerged, prometheus.CounterValue, float64(self.monitor.Report.Tracker.State.AttemptsNotMerged.Load()))
	ch <- prometheus.MustNewConstMetric(self.AttemptsFailed, prometheus.CounterValue, float64(self.monitor.Report.Tracker.State.AttemptsFailed.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsForwarded, prometheus.CounterValue, float64(self.monitor.Report.Listener.State.EventsForwarded.Load()))
	ch <- prometheus.MustNewConstMetric(self.RecordsUpserted, prometheus.CounterValue, float64(self.monitor.Report.Store.State.RecordsUpserted.Load()))
}
