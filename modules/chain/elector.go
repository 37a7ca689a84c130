package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// accountSource resolves the elector contract's current state.
type accountSource interface {
	AccountBOC(ctx context.Context, addr string) (string, error)
}

// Elector wraps the elector contract's get-method interface: election
// state, returned stakes and the participant table.
type Elector struct {
	gw     Gateway
	client accountSource
	cfg    *ConfigReader
}

func NewElector(gw Gateway, client accountSource, cfg *ConfigReader) *Elector {
	return &Elector{gw: gw, client: client, cfg: cfg}
}

func (e *Elector) boc(ctx context.Context) (string, error) {
	addr, err := e.cfg.ElectorAddr(ctx)
	if err != nil {
		return "", err
	}
	return e.client.AccountBOC(ctx, addr)
}

// ActiveElectionId returns the start time of the election currently
// accepting bids, or 0 when none is active.
func (e *Elector) ActiveElectionId(ctx context.Context) (uint32, error) {
	boc, err := e.boc(ctx)
	if err != nil {
		return 0, err
	}
	output, err := e.gw.RunGet(ctx, boc, "active_election_id")
	if err != nil {
		return 0, err
	}
	if len(output) == 0 {
		return 0, fmt.Errorf("failed to get active election id")
	}
	id, err := parseChainIntAny(output[0])
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}

// ComputeReturnedStake returns the nanotoken amount the elector holds
// for the given account id (the hex part of the wallet address).
func (e *Elector) ComputeReturnedStake(ctx context.Context, accountId string) (int64, error) {
	boc, err := e.boc(ctx)
	if err != nil {
		return 0, err
	}
	output, err := e.gw.RunGet(ctx, boc, "compute_returned_stake", "0x"+accountId)
	if err != nil {
		return 0, err
	}
	if len(output) == 0 {
		return 0, fmt.Errorf("failed to compute returned stake")
	}
	return parseChainIntAny(output[0])
}

// PastElectionIds lists the ids of elections whose stakes are still
// frozen.
func (e *Elector) PastElectionIds(ctx context.Context) ([]uint32, error) {
	boc, err := e.boc(ctx)
	if err != nil {
		return nil, err
	}
	output, err := e.gw.RunGet(ctx, boc, "past_election_ids")
	if err != nil {
		return nil, err
	}
	if len(output) == 0 {
		return nil, nil
	}

	var ids []uint32
	err = walkChainList(output[0], func(head any) error {
		id, err := parseChainIntAny(head)
		if err != nil {
			return err
		}
		ids = append(ids, uint32(id))
		return nil
	})
	return ids, err
}

type Participant struct {
	Id        string `json:"id"`
	Stake     int64  `json:"stake"`
	MaxFactor int64  `json:"maxFactor"`
	Addr      string `json:"addr"`
	AdnlAddr  string `json:"adnlAddr"`
}

type ParticipantList struct {
	ElectAt      int64         `json:"electAt"`
	ElectClose   int64         `json:"electClose"`
	MinStake     int64         `json:"minStake"`
	TotalStake   int64         `json:"totalStake"`
	Participants []Participant `json:"participants"`
	Failed       int64         `json:"failed"`
	Finished     int64         `json:"finished"`
}

// MinShareFloor is the smallest stake the elector accepts given the
// current total: ceil(totalStake / 4096), 4096 being the protocol's
// participant cap. Recomputed on every call, never cached.
func (l *ParticipantList) MinShareFloor() int64 {
	return int64(math.Ceil(float64(l.TotalStake) / 4096))
}

func (e *Elector) ParticipantListExtended(ctx context.Context) (*ParticipantList, error) {
	boc, err := e.boc(ctx)
	if err != nil {
		return nil, err
	}
	output, err := e.gw.RunGet(ctx, boc, "participant_list_extended")
	if err != nil {
		return nil, err
	}
	if len(output) < 7 {
		return nil, fmt.Errorf("participant_list_extended: truncated output")
	}

	list := &ParticipantList{}
	for i, dst := range []*int64{&list.ElectAt, &list.ElectClose, &list.MinStake, &list.TotalStake} {
		if *dst, err = parseChainIntAny(output[i]); err != nil {
			return nil, err
		}
	}
	for i, dst := range []*int64{&list.Failed, &list.Finished} {
		if *dst, err = parseChainIntAny(output[5+i]); err != nil {
			return nil, err
		}
	}

	err = walkChainList(output[4], func(head any) error {
		pair, ok := head.([]any)
		if !ok || len(pair) != 2 {
			return fmt.Errorf("participant_list_extended: malformed entry")
		}
		fields, ok := pair[1].([]any)
		if !ok || len(fields) < 4 {
			return fmt.Errorf("participant_list_extended: malformed entry fields")
		}

		p := Participant{
			Id:       fmt.Sprint(pair[0]),
			Addr:     fmt.Sprint(fields[2]),
			AdnlAddr: fmt.Sprint(fields[3]),
		}
		var err error
		if p.Stake, err = parseChainIntAny(fields[0]); err != nil {
			return err
		}
		if p.MaxFactor, err = parseChainIntAny(fields[1]); err != nil {
			return err
		}
		list.Participants = append(list.Participants, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// PastElectionsTotalStakes returns the total stake of each past
// election still tracked by the elector, in list order.
func (e *Elector) PastElectionsTotalStakes(ctx context.Context) ([]int64, error) {
	boc, err := e.boc(ctx)
	if err != nil {
		return nil, err
	}
	output, err := e.gw.RunGet(ctx, boc, "past_elections")
	if err != nil {
		return nil, err
	}
	if len(output) == 0 {
		return nil, nil
	}

	var stakes []int64
	err = walkChainList(output[0], func(head any) error {
		fields, ok := head.([]any)
		if !ok || len(fields) < 6 {
			return fmt.Errorf("past_elections: malformed entry")
		}
		total, err := parseChainIntAny(fields[5])
		if err != nil {
			return err
		}
		stakes = append(stakes, total)
		return nil
	})
	return stakes, err
}

// Get-method output encodes lists as nested [head, tail] pairs with a
// nil terminator.
func walkChainList(v any, visit func(head any) error) error {
	for v != nil {
		pair, ok := v.([]any)
		if !ok || len(pair) != 2 {
			return fmt.Errorf("malformed list node %v", v)
		}
		if err := visit(pair[0]); err != nil {
			return err
		}
		v = pair[1]
	}
	return nil
}

// Numbers come back as decimal or 0x-prefixed strings depending on the
// get-method, occasionally as JSON numbers.
func parseChainIntAny(v any) (int64, error) {
	switch n := v.(type) {
	case string:
		return parseChainInt(n)
	case float64:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("unexpected numeric value %v", v)
	}
}

func parseChainInt(s string) (int64, error) {
	return strconv.ParseInt(s, 0, 64)
}
