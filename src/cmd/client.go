package cmd

import (
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/escrow"
	monitor_escrow "github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/monitoring/escrow"
)

// withGateway runs a one-shot command against the configured gateway
func withGateway(f func(gateway escrow.Gateway) error) (err error) {
	if conf.DemoMode {
		gateway := escrow.NewMemoryGateway(conf)
		defer gateway.Close()
		return f(gateway)
	}

	gateway := escrow.NewEthereumGateway(conf).
		WithMonitor(monitor_escrow.NewMonitor().WithMaxHistorySize(30))

	err = gateway.Start()
	if err != nil {
		return
	}
	defer gateway.StopWait()

	return f(gateway)
}
