package escrow

import (
	"math/big"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/token"

	"github.com/ethereum/go-ethereum/common"
)

// ValidateCreateGig checks the create form locally. Nothing is sent to the
// gateway unless every field passes.
func ValidateCreateGig(input CreateGigInput) (amount *big.Int, err error) {
	if !common.IsHexAddress(input.Freelancer) {
		return nil, &ValidationError{Field: "freelancerAddress", Reason: "not a valid address"}
	}

	amount, err = token.Parse(input.Amount)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Reason: "not a valid token amount"}
	}
	if amount.Sign() <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	if input.RepoOwner == "" {
		return nil, &ValidationError{Field: "repoOwner", Reason: "must not be empty"}
	}
	if input.RepoName == "" {
		return nil, &ValidationError{Field: "repoName", Reason: "must not be empty"}
	}
	if !token.IsValidPRNumber(input.PrId) {
		return nil, &ValidationError{Field: "prId", Reason: "must be a positive number"}
	}
	return
}
