package escrow

import (
	"context"
	"math/big"
)

// EventSubscription is a handle on one event stream. Unsubscribe stops
// delivery and releases the stream's resources.
type EventSubscription interface {
	Unsubscribe()
}

// Gateway is the boundary to the GigEscrow contract. Implementations either
// talk to a real chain or simulate one for demos and tests.
//
// Submit methods broadcast and return without waiting for inclusion. Use
// AwaitConfirmation with the returned handle to learn the final outcome.
type Gateway interface {
	// Address of the account signing transactions
	Address() string

	GigCount(ctx context.Context) (uint64, error)
	GigByID(ctx context.Context, gigId uint64) (*Gig, error)

	SubmitCreateGig(ctx context.Context, freelancer string, amount *big.Int, repoOwner, repoName, prId string) (TxHandle, error)
	SubmitVerifyWork(ctx context.Context, gigId uint64) (TxHandle, error)
	SubmitCancelGig(ctx context.Context, gigId uint64) (TxHandle, error)

	AwaitConfirmation(ctx context.Context, handle TxHandle) (*Receipt, error)

	// SubscribeToEvent delivers every matching decoded event to onEvent until
	// the subscription is released. Callbacks for one subscription run
	// sequentially.
	SubscribeToEvent(eventName string, onEvent func(Event)) (EventSubscription, error)

	TokenBalance(ctx context.Context, account string) (*big.Int, error)
	TokenAllowance(ctx context.Context, owner string) (*big.Int, error)
	SubmitApprove(ctx context.Context, amount *big.Int) (TxHandle, error)
}
