package escrow

import (
	"fmt"
)

// ValidationError is a locally detected malformed input. It never reaches the
// contract.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// GatewayError means the contract or the RPC node rejected the call or was
// unreachable. The remote reason is carried opaque, not interpreted.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// TransactionFailedError means the transaction was broadcast and mined but
// its on-chain execution failed.
type TransactionFailedError struct {
	Handle TxHandle
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s reverted", e.Handle)
}

// NotFoundError means the queried gig does not exist
type NotFoundError struct {
	GigId uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("gig %d not found", e.GigId)
}
