package staking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ton-staking-manager/lib/utils"
	"ton-staking-manager/modules/chain"
	store "ton-staking-manager/modules/db/staking"
)

// Stats is the validator health snapshot served to monitoring. Stake
// and Weight stay zero while none of our recent election keys is in
// the current validator set.
type Stats struct {
	TimeDiff         int64   `json:"timeDiff"`
	Stake            float64 `json:"stake"`
	Weight           float64 `json:"weight"`
	BlocksSignatures int64   `json:"blocksSignatures"`
}

// InfluxLine renders the snapshot in influx line protocol.
func (s *Stats) InfluxLine(measurement string) string {
	return fmt.Sprintf("%s timeDiff=%di,stake=%g,weight=%g,blocksSignatures=%di",
		measurement, s.TimeDiff, s.Stake, s.Weight, s.BlocksSignatures)
}

func parseWeight(s string) float64 {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0
	}
	return float64(v)
}

// Stats gathers the snapshot. signedInterval bounds the block signature
// count window ending now.
func (m *Manager) Stats(ctx context.Context, signedInterval time.Duration) (*Stats, error) {
	stats := &Stats{}

	diff, err := m.console.TimeDiff(ctx)
	if err != nil {
		return nil, err
	}
	stats.TimeDiff = diff

	recs, err := m.elections.AllRecords(ctx)
	if err != nil {
		return nil, err
	}
	// Only the two latest rounds can still be validating.
	recent := utils.TakeRight(recs, 2)
	if len(recent) == 0 {
		return stats, nil
	}

	vset, err := m.cfg.CurrentValidatorSet(ctx)
	if err != nil {
		if errors.Is(err, chain.ErrConfigUnavailable) {
			return stats, nil
		}
		return nil, err
	}

	matched := -1
	var weight float64
	for i, rec := range recent {
		for _, v := range vset.List {
			if rec.ADNLKey != "" && strings.EqualFold(v.AdnlAddr, rec.ADNLKey) {
				matched, weight = i, parseWeight(v.Weight)
			}
		}
	}
	if matched >= 0 {
		if total := parseWeight(vset.TotalWeight); total > 0 {
			stats.Weight = weight / total
		}

		ids, err := m.elector.PastElectionIds(ctx)
		if err != nil {
			return nil, err
		}
		totals, err := m.elector.PastElectionsTotalStakes(ctx)
		if err != nil {
			return nil, err
		}
		for j := range ids {
			if ids[j] == recent[matched].Id && j < len(totals) {
				stats.Stake = float64(totals[j]) * stats.Weight / nanotokens
			}
		}
	}

	keys := utils.Map(recent, func(r store.ElectionRecord) string {
		return strings.ToLower(r.ValidatorKey)
	})
	now := time.Now().Unix()
	signed, err := m.chain.CountBlockSignatures(ctx, keys, now-int64(signedInterval.Seconds()), now)
	if err != nil {
		return nil, err
	}
	stats.BlocksSignatures = signed

	return stats, nil
}
