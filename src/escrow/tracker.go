package escrow

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	monitor_escrow "github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/monitoring/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/task"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/terminal"
)

var ErrVerificationInFlight = errors.New("a verification is already in progress")

// Tracker drives one verification attempt at a time from user intent to a
// terminal outcome, merging the transaction lifecycle with the oracle's
// outcome events into a single status value.
//
// All mutations happen under one mutex and are guarded by an attempt
// sequence number, so late callbacks from an abandoned attempt cannot
// clobber the current one.
type Tracker struct {
	*task.Task

	gateway  Gateway
	terminal *terminal.Terminal
	monitor  *monitor_escrow.Monitor

	mtx     sync.RWMutex
	seq     uint64
	result  *VerificationResult
	txState TransactionState
	timer   *time.Timer

	subscriptions []EventSubscription
}

func NewTracker(config *config.Config, gateway Gateway, term *terminal.Terminal) (self *Tracker) {
	self = new(Tracker)
	self.gateway = gateway
	self.terminal = term
	self.txState = TransactionState{Status: TxIdle}

	self.Task = task.NewTask(config, "tracker").
		WithWorkerPool(1, config.Tracker.SubmitQueueSize).
		WithOnBeforeStart(self.subscribe).
		WithSubtaskFunc(self.run).
		WithOnAfterStop(self.unsubscribe)

	return
}

func (self *Tracker) run() (err error) {
	// State changes happen in callbacks, just wait for the stop
	<-self.StopChannel
	return nil
}

func (self *Tracker) WithMonitor(monitor *monitor_escrow.Monitor) *Tracker {
	self.monitor = monitor
	return self
}

func (self *Tracker) subscribe() (err error) {
	onVerified, err := self.gateway.SubscribeToEvent(EventWorkVerified, self.onEvent)
	if err != nil {
		return
	}
	onReleased, err := self.gateway.SubscribeToEvent(EventPaymentReleased, self.onEvent)
	if err != nil {
		onVerified.Unsubscribe()
		return
	}
	self.subscriptions = []EventSubscription{onVerified, onReleased}
	return
}

func (self *Tracker) unsubscribe() {
	for _, sub := range self.subscriptions {
		sub.Unsubscribe()
	}
	self.mtx.Lock()
	self.stopTimerLocked()
	self.mtx.Unlock()
}

// Result returns a copy of the current attempt, nil when idle
func (self *Tracker) Result() *VerificationResult {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	if self.result == nil {
		return nil
	}
	out := *self.result
	if self.result.Amount != nil {
		out.Amount = new(big.Int).Set(self.result.Amount)
	}
	return &out
}

// TransactionState mirrors the most recent write initiated by this tracker
func (self *Tracker) TransactionState() TransactionState {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.txState
}

// Verify starts a verification attempt for the gig. At most one attempt is
// tracked at a time. A second call while one is in flight is rejected, retry
// after the current attempt reaches a terminal state or is cleared.
func (self *Tracker) Verify(gigId uint64) (err error) {
	self.mtx.Lock()
	if self.result != nil && !self.result.Status.IsTerminal() {
		self.mtx.Unlock()
		return ErrVerificationInFlight
	}

	self.seq += 1
	seq := self.seq
	self.result = &VerificationResult{Status: VerificationPending, GigId: gigId}
	self.txState = TransactionState{Status: TxPending}
	self.stopTimerLocked()
	self.timer = time.AfterFunc(self.Config.Tracker.VerifyTimeout, func() { self.expire(seq) })
	self.mtx.Unlock()

	self.monitor.Report.Tracker.State.AttemptsStarted.Add(1)
	self.terminal.AddLog(terminal.Command, fmt.Sprintf("verifyWork(%d)", gigId), "contract")
	self.terminal.AddLog(terminal.Info, "Initiating work verification...", "chainlink")

	self.SubmitToWorker(func() { self.submit(seq, gigId) })
	return nil
}

// Clear resets the tracker to idle. A no-op when already idle. Outcome events
// arriving for the cleared attempt are ignored.
func (self *Tracker) Clear() {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.result == nil {
		return
	}
	self.seq += 1
	self.stopTimerLocked()
	self.result = nil
	self.txState = TransactionState{Status: TxIdle}
}

func (self *Tracker) submit(seq uint64, gigId uint64) {
	handle, err := self.gateway.SubmitVerifyWork(self.Ctx, gigId)
	if err != nil {
		self.monitor.Report.Tracker.Errors.SubmitFailures.Add(1)
		self.fail(seq, fmt.Sprintf("Verification failed: %v", err), "chainlink")
		return
	}

	self.mtx.Lock()
	if seq != self.seq {
		self.mtx.Unlock()
		self.Log.WithField("tx", handle).Debug("Attempt superseded, dropping broadcast result")
		return
	}
	self.result.Status = VerificationSubmitted
	self.result.Handle = handle
	self.txState = TransactionState{Status: TxConfirming, Handle: handle}
	self.mtx.Unlock()

	receipt, err := self.gateway.AwaitConfirmation(self.Ctx, handle)
	if err != nil {
		self.fail(seq, fmt.Sprintf("Transaction failed: %v", err), "tx")
		return
	}

	self.mtx.Lock()
	if seq != self.seq {
		self.mtx.Unlock()
		return
	}
	self.txState = TransactionState{Status: TxSuccess, Handle: handle}
	self.mtx.Unlock()

	self.Log.WithField("tx", handle).WithField("block", receipt.BlockNumber).Debug("Verification request confirmed")
	self.terminal.AddLog(terminal.Success, fmt.Sprintf("Transaction confirmed: %.10s...", string(handle)), "tx")
}

func (self *Tracker) expire(seq uint64) {
	if self.fail(seq, "Verification timed out waiting for the oracle response", "chainlink") {
		self.monitor.Report.Tracker.Errors.VerifyTimeouts.Add(1)
	}
}

// fail moves the current attempt to the terminal error state, unless the
// attempt was superseded or already finished. Reports whether it transitioned.
func (self *Tracker) fail(seq uint64, message, prefix string) (failed bool) {
	self.mtx.Lock()
	if seq != self.seq || self.result == nil || self.result.Status.IsTerminal() {
		self.mtx.Unlock()
		return false
	}
	self.result.Status = VerificationError
	self.result.ErrorMessage = message
	self.txState = TransactionState{Status: TxError, Handle: self.result.Handle, Error: message}
	self.stopTimerLocked()
	self.mtx.Unlock()

	self.monitor.Report.Tracker.State.AttemptsFailed.Add(1)
	self.terminal.AddLog(terminal.Error, message, prefix)
	return true
}

func (self *Tracker) onEvent(event Event) {
	switch event := event.(type) {
	case *WorkVerifiedEvent:
		self.onWorkVerified(event)
	case *PaymentReleasedEvent:
		self.onPaymentReleased(event)
	}
}

func (self *Tracker) onWorkVerified(event *WorkVerifiedEvent) {
	self.mtx.Lock()
	if !self.isTrackedLocked(event.GigId) {
		self.mtx.Unlock()
		self.Log.WithField("gig_id", event.GigId).Debug("WorkVerified for untracked gig, ignoring")
		return
	}

	if event.IsMerged {
		// Merged is not the end of the road, payment release follows
		self.mtx.Unlock()
		self.terminal.AddLog(terminal.Info, "Oracle response received", "chainlink")
		self.terminal.AddLog(terminal.Info, fmt.Sprintf("Gig #%d PR confirmed merged, releasing funds...", event.GigId), "chainlink")
		return
	}

	self.result.Status = VerificationNotMerged
	self.result.ErrorMessage = "PR is not merged yet. Verify again once it has been merged."
	self.stopTimerLocked()
	self.mtx.Unlock()

	self.monitor.Report.Tracker.State.AttemptsNotMerged.Add(1)

	self.terminal.AddLog(terminal.Info, "Oracle response received", "chainlink")
	self.terminal.AddLog(terminal.Error, fmt.Sprintf("Gig #%d not verified: PR is not merged", event.GigId), "escrow")
}

func (self *Tracker) onPaymentReleased(event *PaymentReleasedEvent) {
	self.mtx.Lock()
	if !self.isTrackedLocked(event.GigId) {
		self.mtx.Unlock()
		self.Log.WithField("gig_id", event.GigId).Debug("PaymentReleased for untracked gig, ignoring")
		return
	}

	self.result.Status = VerificationVerified
	self.result.Amount = new(big.Int).Set(event.Amount)
	self.result.Recipient = event.Freelancer
	self.stopTimerLocked()
	self.mtx.Unlock()

	self.monitor.Report.Tracker.State.AttemptsVerified.Add(1)

	self.terminal.AddLog(terminal.Success, fmt.Sprintf("Gig #%d verified! PR is merged. Funds released.", event.GigId), "escrow")
}

func (self *Tracker) isTrackedLocked(gigId uint64) bool {
	return self.result != nil && self.result.GigId == gigId && !self.result.Status.IsTerminal()
}

func (self *Tracker) stopTimerLocked() {
	if self.timer != nil {
		self.timer.Stop()
		self.timer = nil
	}
}
