package report

type Report struct {
	Run      *RunReport      `json:"run,omitempty"`
	Gateway  *GatewayReport  `json:"gateway,omitempty"`
	Tracker  *TrackerReport  `json:"tracker,omitempty"`
	Listener *ListenerReport `json:"listener,omitempty"`
	Store    *StoreReport    `json:"store,omitempty"`
}
