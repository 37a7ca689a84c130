package staking

import (
	"context"
	"encoding/json"

	"github.com/moznion/go-optional"

	"ton-staking-manager/modules/chain"
	store "ton-staking-manager/modules/db/staking"
)

// Read-side operations backing the HTTP API.

func (m *Manager) ActiveElectionId(ctx context.Context) (uint32, error) {
	return m.elector.ActiveElectionId(ctx)
}

func (m *Manager) WalletBalance(ctx context.Context) (int64, error) {
	return m.chain.AccountBalance(ctx, m.conf.Get().WalletAddr)
}

// NextStakeSize returns the stake in tokens the next submission would
// use: the stored override if any, the configured default otherwise.
func (m *Manager) NextStakeSize(ctx context.Context) (int64, error) {
	override, err := m.settings.NextStakeSize(ctx)
	if err != nil {
		return 0, err
	}
	return override.TakeOr(m.conf.Get().DefaultStake), nil
}

// SetNextStakeSize stores a stake override in tokens. It stays in
// effect until changed; a non-positive value clears it.
func (m *Manager) SetNextStakeSize(ctx context.Context, tokens int64) error {
	if tokens <= 0 {
		return m.settings.SetNextStakeSize(ctx, optional.None[int64]())
	}
	return m.settings.SetNextStakeSize(ctx, optional.Some(tokens))
}

func (m *Manager) SkipNextElections(ctx context.Context) (bool, error) {
	return m.settings.SkipNextElections(ctx)
}

func (m *Manager) SetSkipNextElections(ctx context.Context, skip bool) error {
	return m.settings.SetSkipNextElections(ctx, skip)
}

func (m *Manager) ElectionsHistory(ctx context.Context) ([]store.ElectionRecord, error) {
	return m.elections.AllRecords(ctx)
}

func (m *Manager) Participants(ctx context.Context) (*chain.ParticipantList, error) {
	return m.elector.ParticipantListExtended(ctx)
}

func (m *Manager) ConfigParam(ctx context.Context, id int) (json.RawMessage, error) {
	return m.cfg.Get(ctx, id)
}

// TimeDiff is the node's masterchain lag in seconds, negative when the
// node trails the network.
func (m *Manager) TimeDiff(ctx context.Context) (int64, error) {
	return m.console.TimeDiff(ctx)
}
