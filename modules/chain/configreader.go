package chain

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Selection sets for the structured config parameters this system
// reads. Scalar parameters map to the empty string.
var paramSubfields = map[int]string{
	1:  "",
	15: "{validators_elected_for elections_start_before elections_end_before stake_held_for}",
	17: "{min_stake max_stake min_total_stake max_stake_factor}",
	34: "{utime_since utime_until total_weight list {public_key adnl_addr weight}}",
	36: "{utime_since utime_until}",
}

// Parameters that change with every election and must never be served
// from cache. Everything else only changes at key-block boundaries and
// is memoized for the process lifetime.
var freshOnlyParams = map[int]bool{34: true, 36: true}

// Documented fallbacks applied by the accessors below when the lookup
// yields ErrConfigUnavailable.
const (
	DefaultValidationPeriod = uint32(65536)
	DefaultMinStake         = int64(0x9184e72a000)
	DefaultElectorAddr      = "-1:3333333333333333333333333333333333333333333333333333333333333333"
)

// configParamSource is what ConfigReader needs from the rpc client.
type configParamSource interface {
	KeyBlockConfigParam(ctx context.Context, id int, subfields string) (json.RawMessage, error)
}

// ConfigReader fetches network configuration parameters from the most
// recent key block.
type ConfigReader struct {
	client configParamSource

	mu    sync.Mutex
	cache map[int]json.RawMessage
}

func NewConfigReader(client configParamSource) *ConfigReader {
	return &ConfigReader{
		client: client,
		cache:  make(map[int]json.RawMessage),
	}
}

func (r *ConfigReader) Get(ctx context.Context, id int) (json.RawMessage, error) {
	if !freshOnlyParams[id] {
		r.mu.Lock()
		cached, ok := r.cache[id]
		r.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	value, err := r.client.KeyBlockConfigParam(ctx, id, paramSubfields[id])
	if err != nil {
		return nil, err
	}

	if !freshOnlyParams[id] {
		r.mu.Lock()
		r.cache[id] = value
		r.mu.Unlock()
	}
	return value, nil
}

// ElectionTiming is config parameter 15.
type ElectionTiming struct {
	ValidatorsElectedFor uint32 `json:"validators_elected_for"`
	ElectionsStartBefore uint32 `json:"elections_start_before"`
	ElectionsEndBefore   uint32 `json:"elections_end_before"`
	StakeHeldFor         uint32 `json:"stake_held_for"`
}

// ValidationPeriod returns how long an elected validator set serves.
func (r *ConfigReader) ValidationPeriod(ctx context.Context) (uint32, error) {
	raw, err := r.Get(ctx, 15)
	if err != nil {
		if errors.Is(err, ErrConfigUnavailable) {
			return DefaultValidationPeriod, nil
		}
		return 0, err
	}

	var timing ElectionTiming
	if err := json.Unmarshal(raw, &timing); err != nil {
		return 0, err
	}
	if timing.ValidatorsElectedFor == 0 {
		return DefaultValidationPeriod, nil
	}
	return timing.ValidatorsElectedFor, nil
}

// MinStake returns the minimum election stake in nanotokens.
func (r *ConfigReader) MinStake(ctx context.Context) (int64, error) {
	raw, err := r.Get(ctx, 17)
	if err != nil {
		if errors.Is(err, ErrConfigUnavailable) {
			return DefaultMinStake, nil
		}
		return 0, err
	}

	var p17 struct {
		MinStake string `json:"min_stake"`
	}
	if err := json.Unmarshal(raw, &p17); err != nil {
		return 0, err
	}
	value, err := parseChainInt(p17.MinStake)
	if err != nil || value == 0 {
		return DefaultMinStake, nil
	}
	return value, nil
}

// ElectorAddr returns the elector contract address from parameter 1,
// with the hardcoded fallback when the parameter is unavailable.
func (r *ConfigReader) ElectorAddr(ctx context.Context) (string, error) {
	raw, err := r.Get(ctx, 1)
	if err != nil {
		if errors.Is(err, ErrConfigUnavailable) {
			return DefaultElectorAddr, nil
		}
		return "", err
	}

	var addr string
	if err := json.Unmarshal(raw, &addr); err != nil {
		return "", err
	}
	return "-1:" + addr, nil
}

// ValidatorSet is config parameter 34, the active validator weight
// table.
type ValidatorDescr struct {
	PublicKey string `json:"public_key"`
	AdnlAddr  string `json:"adnl_addr"`
	Weight    string `json:"weight"`
}

type ValidatorSet struct {
	TotalWeight string           `json:"total_weight"`
	List        []ValidatorDescr `json:"list"`
}

func (r *ConfigReader) CurrentValidatorSet(ctx context.Context) (*ValidatorSet, error) {
	raw, err := r.Get(ctx, 34)
	if err != nil {
		return nil, err
	}

	var set ValidatorSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// NextValidatorSetPresent checks parameter 36. The parameter exists
// only between the close of elections and the handover to the new
// validator set.
func (r *ConfigReader) NextValidatorSetPresent(ctx context.Context) (bool, error) {
	_, err := r.Get(ctx, 36)
	if err != nil {
		if errors.Is(err, ErrConfigUnavailable) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
