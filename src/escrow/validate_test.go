package escrow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func validInput() CreateGigInput {
	return CreateGigInput{
		Freelancer: "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		Amount:     "1000",
		RepoOwner:  "ethereum",
		RepoName:   "go-ethereum",
		PrId:       "28547",
	}
}

func TestValidateCreateGig(t *testing.T) {
	amount, err := ValidateCreateGig(validInput())
	require.NoError(t, err)

	expected, _ := new(big.Int).SetString("1000000000000000000000", 10)
	require.Zero(t, expected.Cmp(amount))
}

func TestValidateCreateGigRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateGigInput)
		field  string
	}{
		{"malformed address", func(i *CreateGigInput) { i.Freelancer = "not-an-address" }, "freelancerAddress"},
		{"empty address", func(i *CreateGigInput) { i.Freelancer = "" }, "freelancerAddress"},
		{"zero amount", func(i *CreateGigInput) { i.Amount = "0" }, "amount"},
		{"negative amount", func(i *CreateGigInput) { i.Amount = "-5" }, "amount"},
		{"garbage amount", func(i *CreateGigInput) { i.Amount = "lots" }, "amount"},
		{"empty repo owner", func(i *CreateGigInput) { i.RepoOwner = "" }, "repoOwner"},
		{"empty repo name", func(i *CreateGigInput) { i.RepoName = "" }, "repoName"},
		{"non numeric pr", func(i *CreateGigInput) { i.PrId = "12a" }, "prId"},
		{"zero pr", func(i *CreateGigInput) { i.PrId = "0" }, "prId"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)

			amount, err := ValidateCreateGig(input)
			require.Nil(t, amount)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tc.field, validationErr.Field)
		})
	}
}
