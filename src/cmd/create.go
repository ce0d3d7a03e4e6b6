package cmd

import (
	"fmt"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/token"

	"github.com/spf13/cobra"
)

var createInput escrow.CreateGigInput
var createRepo string

func init() {
	createCmd.Flags().StringVar(&createInput.Freelancer, "freelancer", "", "freelancer address receiving the escrow")
	createCmd.Flags().StringVar(&createInput.Amount, "amount", "", "MNEE amount, e.g. 1000 or 1000.5")
	createCmd.Flags().StringVar(&createRepo, "repo", "", "repository as owner/name or a github.com URL")
	createCmd.Flags().StringVar(&createInput.PrId, "pr", "", "pull request number")
	RootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a gig and lock tokens until the PR merges",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		createInput.RepoOwner, createInput.RepoName, err = token.ParseRepo(createRepo)
		if err != nil {
			return
		}

		amount, err := escrow.ValidateCreateGig(createInput)
		if err != nil {
			return
		}

		return withGateway(func(gateway escrow.Gateway) (err error) {
			allowance, err := gateway.TokenAllowance(applicationCtx, gateway.Address())
			if err != nil {
				return
			}
			if allowance.Cmp(amount) < 0 {
				handle, err := gateway.SubmitApprove(applicationCtx, amount)
				if err != nil {
					return err
				}
				fmt.Printf("approve: %s\n", handle)
				_, err = gateway.AwaitConfirmation(applicationCtx, handle)
				if err != nil {
					return err
				}
			}

			handle, err := gateway.SubmitCreateGig(applicationCtx,
				createInput.Freelancer, amount, createInput.RepoOwner, createInput.RepoName, createInput.PrId)
			if err != nil {
				return
			}
			fmt.Printf("createGig: %s\n", handle)

			receipt, err := gateway.AwaitConfirmation(applicationCtx, handle)
			if err != nil {
				return
			}
			fmt.Printf("confirmed in block %d\n", receipt.BlockNumber)
			return
		})
	},
}
