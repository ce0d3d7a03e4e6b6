package monitor_escrow

import (
	"math"
	"net/http"
	"time"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/monitoring/report"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int

	collector *Collector

	// Event delivery speed
	EventCounts *deque.Deque[int64]
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:      &report.RunReport{},
		Gateway:  &report.GatewayReport{},
		Tracker:  &report.TrackerReport{},
		Listener: &report.ListenerReport{},
		Store:    &report.StoreReport{},
	}

	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorEvents)
	return
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize
	self.EventCounts = deque.New[int64](self.historySize)
	return self
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Measure event delivery speed
func (self *Monitor) monitorEvents() (err error) {
	loaded := self.Report.Gateway.State.EventsDelivered.Load()
	if loaded == 0 {
		// Neglect the first 0
		return
	}

	self.EventCounts.PushBack(loaded)
	if self.EventCounts.Len() > self.historySize {
		self.EventCounts.PopFront()
	}
	value := float64(self.EventCounts.Back()-self.EventCounts.Front()) / float64(self.EventCounts.Len())
	self.Report.Gateway.State.AverageEventsDeliveredPerMinute.Store(round(value))
	return
}

func (self *Monitor) IsOK() bool {
	now := time.Now().Unix()
	if now-self.Report.Run.State.StartTimestamp.Load() < 300 {
		return true
	}

	// Running long enough, a stalled store means a stale projection
	return self.Report.Store.Errors.EventsDropped.Load() == 0
}

func (self *Monitor) fill() {
	self.Report.Run.State.UpForSeconds.
		Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.fill()
	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	status := http.StatusOK
	if !self.IsOK() {
		status = http.StatusServiceUnavailable
	}
	self.fill()
	c.JSON(status, &self.Report)
}
