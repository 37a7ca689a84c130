package staking

import (
	"context"
	"fmt"

	"ton-staking-manager/lib/logger"
	store "ton-staking-manager/modules/db/staking"
)

// WalletPolicy stakes the multisig wallet's own balance directly with
// the elector.
type WalletPolicy struct {
	addr         string
	defaultStake int64

	chain   ChainReader
	cfg     NetworkConfig
	elector ElectorReader
	log     logger.Logger
}

func NewWalletPolicy(addr string, defaultStake int64, chain ChainReader, cfg NetworkConfig, elector ElectorReader, log logger.Logger) *WalletPolicy {
	return &WalletPolicy{
		addr:         addr,
		defaultStake: defaultStake,
		chain:        chain,
		cfg:          cfg,
		elector:      elector,
		log:          log,
	}
}

func (p *WalletPolicy) SourceAddress(ctx context.Context, electionId uint32) (string, error) {
	return p.addr, nil
}

func (p *WalletPolicy) DestinationAddress(ctx context.Context) (string, error) {
	return p.cfg.ElectorAddr(ctx)
}

func (p *WalletPolicy) DefaultStake() int64 {
	return p.defaultStake
}

func (p *WalletPolicy) AllowCustomStake() bool {
	return true
}

func (p *WalletPolicy) CheckPreconditions(ctx context.Context, rec store.ElectionRecord, nanostake int64) error {
	balance, err := p.chain.AccountBalance(ctx, p.addr)
	if err != nil {
		return err
	}
	if nanostake > balance {
		return fmt.Errorf("%w: balance %d, stake %d", ErrInsufficientFunds, balance, nanostake)
	}

	// The minimum only binds the first stake of an election; top-ups
	// may be arbitrarily small as long as the share floor holds.
	if rec.Stake == 0 {
		minStake, err := p.cfg.MinStake(ctx)
		if err != nil {
			return err
		}
		if nanostake < minStake {
			return fmt.Errorf("%w: minimum %d, stake %d", ErrBelowMinimumStake, minStake, nanostake)
		}
	}

	list, err := p.elector.ParticipantListExtended(ctx)
	if err != nil {
		return err
	}
	// Each submitted amount must clear the floor on its own; prior
	// stakes of the same election do not count towards it.
	if floor := list.MinShareFloor(); nanostake < floor {
		return fmt.Errorf("%w: floor %d, stake %d", ErrBelowNetworkShareFloor, floor, nanostake)
	}
	return nil
}

func (p *WalletPolicy) ConfirmStake(ctx context.Context, electionId uint32) error {
	return nil
}

func (p *WalletPolicy) OnElectionsClosed(ctx context.Context) error {
	return nil
}

func (p *WalletPolicy) AllowRepeat() bool {
	return true
}
