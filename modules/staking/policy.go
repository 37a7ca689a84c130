package staking

import (
	"context"

	store "ton-staking-manager/modules/db/staking"
)

// FundingPolicy abstracts where the stake comes from and where the
// signed election payload goes. Two implementations exist: the wallet
// stakes its own balance directly with the elector, the DePool variant
// routes a nominal-value message through the pool's election proxy.
type FundingPolicy interface {
	// SourceAddress is the address the election request is built for.
	// DePool discovery may block until the relevant proxy is known.
	SourceAddress(ctx context.Context, electionId uint32) (string, error)
	// DestinationAddress is where the signed payload is submitted.
	DestinationAddress(ctx context.Context) (string, error)
	// DefaultStake is the value in nanotokens attached to the
	// submitted message.
	DefaultStake() int64
	// AllowCustomStake reports whether the operator's next-stake-size
	// override applies. The DePool message value is nominal and never
	// follows the override.
	AllowCustomStake() bool
	// CheckPreconditions rejects a stake that the elector would bounce
	// or the wallet cannot afford. rec is the stored record for the
	// election being entered.
	CheckPreconditions(ctx context.Context, rec store.ElectionRecord, nanostake int64) error
	// ConfirmStake blocks until the funding side acknowledged the
	// submitted stake, where such an acknowledgement exists.
	ConfirmStake(ctx context.Context, electionId uint32) error
	// OnElectionsClosed runs the policy's post-election duties once per
	// closed election.
	OnElectionsClosed(ctx context.Context) error
	// AllowRepeat reports whether a forced trigger may resubmit for an
	// election that already holds a stake.
	AllowRepeat() bool
}
