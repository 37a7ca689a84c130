package api

import (
	"context"
	"encoding/json"
	"time"

	"ton-staking-manager/modules/chain"
	store "ton-staking-manager/modules/db/staking"
	"ton-staking-manager/modules/staking"
)

// StakingService is the surface the HTTP layer exposes; *staking.Manager
// implements it.
type StakingService interface {
	SendStake(ctx context.Context, force bool) error
	RecoverStake(ctx context.Context) error
	RestoreKeys(ctx context.Context) error

	ActiveElectionId(ctx context.Context) (uint32, error)
	WalletBalance(ctx context.Context) (int64, error)
	NextStakeSize(ctx context.Context) (int64, error)
	SetNextStakeSize(ctx context.Context, tokens int64) error
	SkipNextElections(ctx context.Context) (bool, error)
	SetSkipNextElections(ctx context.Context, skip bool) error
	ElectionsHistory(ctx context.Context) ([]store.ElectionRecord, error)
	Participants(ctx context.Context) (*chain.ParticipantList, error)
	ConfigParam(ctx context.Context, id int) (json.RawMessage, error)
	TimeDiff(ctx context.Context) (int64, error)
	Stats(ctx context.Context, signedInterval time.Duration) (*staking.Stats, error)
}

var _ StakingService = (*staking.Manager)(nil)
