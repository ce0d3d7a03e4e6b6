package escrow

import (
	"fmt"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	monitor_escrow "github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/monitoring/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/task"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/terminal"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/token"
)

// Listener subscribes to every GigEscrow event, narrates lifecycle changes
// into the terminal and forwards the events downstream for projection.
// Outcome events are forwarded silently, the tracker owns their narration.
type Listener struct {
	*task.Task

	gateway  Gateway
	terminal *terminal.Terminal
	monitor  *monitor_escrow.Monitor

	subscriptions []EventSubscription

	// Events in emission order
	Output chan Event
}

func NewListener(config *config.Config, gateway Gateway, term *terminal.Terminal) (self *Listener) {
	self = new(Listener)
	self.gateway = gateway
	self.terminal = term
	self.Output = make(chan Event, config.Listener.ChannelSize)

	self.Task = task.NewTask(config, "listener").
		WithOnBeforeStart(self.subscribe).
		WithSubtaskFunc(self.run).
		WithOnAfterStop(self.unsubscribe)

	return
}

func (self *Listener) run() (err error) {
	// Delivery happens in subscription callbacks, just wait for the stop
	<-self.StopChannel
	return nil
}

func (self *Listener) WithMonitor(monitor *monitor_escrow.Monitor) *Listener {
	self.monitor = monitor
	return self
}

func (self *Listener) subscribe() (err error) {
	eventNames := []string{
		EventGigCreated,
		EventGigCancelled,
		EventGigFunded,
		EventWorkVerificationRequested,
		EventWorkVerified,
		EventPaymentReleased,
	}

	for _, eventName := range eventNames {
		sub, err := self.gateway.SubscribeToEvent(eventName, self.onEvent)
		if err != nil {
			self.unsubscribe()
			return err
		}
		self.subscriptions = append(self.subscriptions, sub)
	}
	return
}

func (self *Listener) unsubscribe() {
	for _, sub := range self.subscriptions {
		sub.Unsubscribe()
	}
	self.subscriptions = nil
	close(self.Output)
}

func (self *Listener) onEvent(event Event) {
	self.narrate(event)

	select {
	case self.Output <- event:
		self.monitor.Report.Listener.State.EventsForwarded.Add(1)
	case <-self.Ctx.Done():
	}
}

func (self *Listener) narrate(event Event) {
	switch event := event.(type) {
	case *GigCreatedEvent:
		self.terminal.AddLog(terminal.Success,
			fmt.Sprintf("Gig #%d created: %s/%s PR #%s for %s MNEE",
				event.GigId, event.RepoOwner, event.RepoName, event.PrId, token.Format(event.Amount)),
			"escrow")
	case *GigFundedEvent:
		self.terminal.AddLog(terminal.Info,
			fmt.Sprintf("Gig #%d funded with %s MNEE", event.GigId, token.Format(event.Amount)),
			"token")
	case *GigCancelledEvent:
		self.terminal.AddLog(terminal.Warning,
			fmt.Sprintf("Gig #%d cancelled, %s MNEE refunded to %s",
				event.GigId, token.Format(event.Amount), token.FormatAddress(event.Client, 4)),
			"escrow")
	case *WorkVerificationRequestedEvent:
		self.terminal.AddLog(terminal.Info,
			fmt.Sprintf("Verification requested for gig #%d", event.GigId),
			"chainlink")
	}
}
