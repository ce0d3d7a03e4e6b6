package server

import (
	"context"
	"net/http"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/github"
	monitor_escrow "github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/monitoring/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/task"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/terminal"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rest API server, serves the dashboard state and monitor counters
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	gateway  escrow.Gateway
	tracker  *escrow.Tracker
	store    *escrow.Store
	terminal *terminal.Terminal
	github   *github.Client
	monitor  *monitor_escrow.Monitor
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "server").
		WithWorkerPool(4, 32).
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	self.Router = gin.New()
	self.Router.Use(gin.Recovery())

	self.httpServer = &http.Server{
		Addr:    self.Config.RESTListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *Server) WithGateway(gateway escrow.Gateway) *Server {
	self.gateway = gateway
	return self
}

func (self *Server) WithTracker(tracker *escrow.Tracker) *Server {
	self.tracker = tracker
	return self
}

func (self *Server) WithStore(store *escrow.Store) *Server {
	self.store = store
	return self
}

func (self *Server) WithTerminal(term *terminal.Terminal) *Server {
	self.terminal = term
	return self
}

func (self *Server) WithGithub(client *github.Client) *Server {
	self.github = client
	return self
}

func (self *Server) WithMonitor(monitor *monitor_escrow.Monitor) *Server {
	self.monitor = monitor
	return self
}

func (self *Server) run() (err error) {
	err = self.setupRoutes()
	if err != nil {
		return
	}

	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start REST server")
		return
	}
	return nil
}

func (self *Server) setupRoutes() (err error) {
	registry := prometheus.NewRegistry()
	err = registry.Register(self.monitor.GetPrometheusCollector())
	if err != nil {
		return
	}

	v1 := self.Router.Group("v1")
	{
		v1.GET("gigs", self.onListGigs)
		v1.POST("gigs", self.onCreateGig)
		v1.GET("gigs/:id", self.onGetGig)
		v1.POST("gigs/:id/verify", self.onVerifyGig)
		v1.POST("gigs/:id/cancel", self.onCancelGig)
		v1.GET("gigs/:id/pr", self.onGetPullRequest)

		v1.GET("verification", self.onGetVerification)
		v1.DELETE("verification", self.onClearVerification)

		v1.GET("terminal", self.onGetTerminal)
		v1.DELETE("terminal", self.onClearTerminal)
		v1.GET("terminal/ws", self.onStreamTerminal)

		v1.GET("token/balance", self.onGetBalance)
		v1.GET("token/allowance", self.onGetAllowance)
		v1.POST("token/approve", self.onApprove)

		v1.GET("state", self.monitor.OnGetState)
		v1.GET("health", self.monitor.OnGetHealth)
		v1.GET("metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown REST server")
		return
	}
}
