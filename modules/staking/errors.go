package staking

import "errors"

var (
	// Funding preconditions; they abort the cycle and require operator
	// intervention, never a retry.
	ErrInsufficientFunds      = errors.New("not enough tokens in the wallet")
	ErrBelowMinimumStake      = errors.New("initial stake is less than the minimum allowed")
	ErrBelowNetworkShareFloor = errors.New("stake is below the network share floor")

	// DePool discovery/confirmation failures; the next scheduled
	// trigger retries the whole flow.
	ErrProxyResolutionTimeout = errors.New("unable to detect a relevant proxy address in depool events")
	ErrEventWaitTimeout       = errors.New("time is out while waiting for a depool event")
	ErrSubscriptionClosed     = errors.New("message subscription closed while waiting for a depool event")
	ErrStakeRejected          = errors.New("depool did not accept the stake")

	// ErrSubmitFailed means the bounded retry loop ran out of attempts
	// without a confirmed transaction.
	ErrSubmitFailed = errors.New("transaction was not confirmed")

	// ErrIncompleteRecord marks an election record without captured key
	// secrets, predating secret capture.
	ErrIncompleteRecord = errors.New("election record is missing key, adnlKey or keySecrets")
)
