package cmd

import (
	"fmt"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/token"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(gigsCmd)
}

var gigsCmd = &cobra.Command{
	Use:   "gigs",
	Short: "List all gigs held by the escrow contract",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return withGateway(func(gateway escrow.Gateway) (err error) {
			count, err := gateway.GigCount(applicationCtx)
			if err != nil {
				return
			}

			for gigId := uint64(1); gigId <= count; gigId++ {
				gig, err := gateway.GigByID(applicationCtx, gigId)
				if err != nil {
					return err
				}
				fmt.Printf("#%-4d %-9s %s/%s PR #%s  %s MNEE  freelancer %s  %s\n",
					gig.Id,
					gig.Status,
					gig.RepoOwner,
					gig.RepoName,
					gig.PrId,
					token.Format(gig.Amount),
					token.FormatAddress(gig.Freelancer, 4),
					token.FormatRelativeTime(gig.CreatedAt),
				)
			}
			return
		})
	},
}
