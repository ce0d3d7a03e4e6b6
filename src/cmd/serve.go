package cmd

import (
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/server"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the escrow dashboard API and the contract event pipeline",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := escrow.NewController(conf)
		if err != nil {
			return
		}

		rest := server.NewServer(conf).
			WithGateway(controller.Gateway).
			WithTracker(controller.Tracker).
			WithStore(controller.Store).
			WithTerminal(controller.Terminal).
			WithGithub(controller.Github).
			WithMonitor(controller.Monitor)

		controller.WithSubtask(rest.Task)

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished serve command")
		applicationCtxCancel()
		return
	},
}
