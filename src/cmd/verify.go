package cmd

import (
	"fmt"
	"strconv"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/escrow"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify <gig-id>",
	Short: "Request an oracle check whether the gig's PR has merged",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		gigId, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || gigId == 0 {
			return fmt.Errorf("invalid gig id %q", args[0])
		}

		return withGateway(func(gateway escrow.Gateway) (err error) {
			handle, err := gateway.SubmitVerifyWork(applicationCtx, gigId)
			if err != nil {
				return
			}
			fmt.Printf("verifyWork: %s\n", handle)

			receipt, err := gateway.AwaitConfirmation(applicationCtx, handle)
			if err != nil {
				return
			}
			fmt.Printf("confirmed in block %d, oracle outcome will arrive on chain\n", receipt.BlockNumber)
			return
		})
	},
}
