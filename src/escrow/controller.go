package escrow

import (
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/github"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/model"
	monitor_escrow "github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/monitoring/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/task"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/terminal"

	"gorm.io/gorm"
)

// Controller wires the gateway, tracker, listener and projection store into
// one task tree. Everything starts upon calling Controller.Start().
type Controller struct {
	*task.Task

	Gateway  Gateway
	Tracker  *Tracker
	Store    *Store
	Terminal *terminal.Terminal
	Github   *github.Client
	Monitor  *monitor_escrow.Monitor
}

func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "escrow")

	// SQL database, demo mode runs on a throwaway in-memory one
	var db *gorm.DB
	if config.DemoMode {
		db, err = model.ConnectInMemory()
	} else {
		db, err = model.Connect(self.Ctx, &config.Database, "escrow")
	}
	if err != nil {
		self.Log.WithError(err).Error("Could not connect to the database")
		return
	}

	self.Monitor = monitor_escrow.NewMonitor().
		WithMaxHistorySize(30)

	self.Terminal = terminal.NewTerminal(config)
	self.Github = github.NewClient(config)

	// Contract gateway, simulated or live
	var gatewayTask *task.Task
	if config.DemoMode {
		gateway := NewMemoryGateway(config)
		gateway.AutoFulfill = true
		self.Gateway = gateway
	} else {
		gateway := NewEthereumGateway(config).
			WithMonitor(self.Monitor)
		self.Gateway = gateway
		gatewayTask = gateway.Task
	}

	self.Tracker = NewTracker(config, self.Gateway, self.Terminal).
		WithMonitor(self.Monitor)

	listener := NewListener(config, self.Gateway, self.Terminal).
		WithMonitor(self.Monitor)

	self.Store = NewStore(config, db, listener.Output).
		WithMonitor(self.Monitor)

	// Setup everything, will start upon calling Controller.Start()
	self.Task.
		WithConditionalSubtask(gatewayTask != nil, gatewayTask).
		WithSubtask(listener.Task).
		WithSubtask(self.Store.Task).
		WithSubtask(self.Tracker.Task).
		WithSubtask(self.Monitor.Task)
	return
}
