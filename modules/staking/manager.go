package staking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chebyrash/promise"

	"ton-staking-manager/lib/logger"
	"ton-staking-manager/lib/utils"
	a "ton-staking-manager/modules/aggregate"
	store "ton-staking-manager/modules/db/staking"
	"ton-staking-manager/modules/tools"
)

const (
	nanotokens = 1_000_000_000

	// Value attached to a recover_stake query; the change comes back
	// with the released stake.
	recoverQueryValue = nanotokens
)

// Manager drives the election cycle: it decides whether a stake is due,
// provisions and registers election keys, signs the request and submits
// the payload through the configured funding policy.
type Manager struct {
	conf StakingConfig

	elections store.Elections
	settings  store.Settings

	chain   ChainReader
	cfg     NetworkConfig
	elector ElectorReader

	console SigningToolchain
	fift    PayloadBuilder
	decoder EventDecoder
	tx      *Transactor

	policy FundingPolicy
	log    logger.Logger

	mu         sync.Mutex
	inProgress bool
	// One-shot per closed election window; rearmed when elections open
	// again.
	closedHandled bool
}

var _ a.Plugin = &Manager{}

func New(
	conf StakingConfig,
	elections store.Elections,
	settings store.Settings,
	chain ChainReader,
	cfg NetworkConfig,
	elector ElectorReader,
	console SigningToolchain,
	fift PayloadBuilder,
	decoder EventDecoder,
	tx *Transactor,
	log logger.Logger,
) *Manager {
	return &Manager{
		conf:      conf,
		elections: elections,
		settings:  settings,
		chain:     chain,
		cfg:       cfg,
		elector:   elector,
		console:   console,
		fift:      fift,
		decoder:   decoder,
		tx:        tx,
		log:       log,
	}
}

func (m *Manager) Init() error {
	c := m.conf.Get()
	switch c.FundingType {
	case "depool":
		m.policy = NewDePoolPolicy(c.DePoolAddr, eventTimeout(c), m.tx, m.chain, m.decoder, m.log)
	default:
		m.policy = NewWalletPolicy(c.WalletAddr, c.DefaultStake*nanotokens, m.chain, m.cfg, m.elector, m.log)
	}
	return nil
}

func (m *Manager) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

func (m *Manager) Stop() error {
	return nil
}

// SendStake runs one election cycle. Concurrent triggers collapse into
// the running one; force overrides the operator skip flag and, where
// the policy allows it, resubmits for a round that already holds a
// stake.
func (m *Manager) SendStake(ctx context.Context, force bool) error {
	m.mu.Lock()
	if m.inProgress {
		m.mu.Unlock()
		m.log.Info("stake submission is already in progress")
		return nil
	}
	m.inProgress = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inProgress = false
		m.mu.Unlock()
	}()

	electionId, err := m.elector.ActiveElectionId(ctx)
	if err != nil {
		return err
	}
	if electionId == 0 {
		return m.handleClosedElections(ctx)
	}
	m.mu.Lock()
	m.closedHandled = false
	m.mu.Unlock()

	skip, err := m.settings.SkipNextElections(ctx)
	if err != nil {
		return err
	}
	if skip && !force {
		m.log.Info("election", electionId, "is skipped as requested")
		return nil
	}

	rec, err := m.elections.GetRecord(ctx, electionId)
	if err != nil {
		return err
	}
	if rec.Stake > 0 && !(force && m.policy.AllowRepeat()) {
		m.log.Info("stake for election", electionId, "was submitted earlier")
		return nil
	}

	return m.submit(ctx, electionId, rec)
}

func (m *Manager) handleClosedElections(ctx context.Context) error {
	m.log.Info("no active elections")

	m.mu.Lock()
	done := m.closedHandled
	m.mu.Unlock()
	if done {
		return nil
	}

	// Once the incoming validator set is published the elector has
	// finished the round on its own and no nudge is needed.
	present, err := m.cfg.NextValidatorSetPresent(ctx)
	if err != nil {
		return err
	}
	if present {
		return nil
	}
	if err := m.policy.OnElectionsClosed(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.closedHandled = true
	m.mu.Unlock()
	return nil
}

func (m *Manager) submit(ctx context.Context, electionId uint32, rec store.ElectionRecord) error {
	m.log.Info("submitting a stake for election", electionId)

	nanostake, err := m.stakeAmount(ctx)
	if err != nil {
		return err
	}
	if err := m.policy.CheckPreconditions(ctx, rec, nanostake); err != nil {
		return err
	}

	srcAddr, err := m.policy.SourceAddress(ctx, electionId)
	if err != nil {
		return err
	}
	period, err := m.cfg.ValidationPeriod(ctx)
	if err != nil {
		return err
	}
	electionStop := electionId + period

	if rec.Provisioned() {
		m.log.Info("reusing election keys for", electionId)
	} else {
		if rec, err = m.provisionKeys(ctx, electionId, electionStop, rec); err != nil {
			return err
		}
	}

	maxFactor := m.conf.Get().MaxFactor
	if !rec.Signed() {
		request, err := m.fift.BuildElectionRequest(ctx, srcAddr, electionId, maxFactor, rec.ADNLKey)
		if err != nil {
			return err
		}
		if rec.PublicKey, err = m.console.ExportPublicKey(ctx, rec.ValidatorKey); err != nil {
			return err
		}
		if rec.Signature, err = m.console.Sign(ctx, rec.ValidatorKey, request); err != nil {
			return err
		}
		if err := m.elections.UpsertRecord(ctx, rec); err != nil {
			return err
		}
	}

	payload, err := m.fift.BuildSignedElectionPayload(ctx, srcAddr, electionId, maxFactor, rec.ADNLKey, rec.PublicKey, rec.Signature)
	if err != nil {
		return err
	}
	dest, err := m.policy.DestinationAddress(ctx)
	if err != nil {
		return err
	}

	err = m.tx.SubmitTransaction(ctx, tools.SubmitTransactionParams{
		Dest:    dest,
		Value:   nanostake,
		Bounce:  true,
		Payload: payload,
	}, m.conf.Get().SendAttempts)
	if err != nil {
		return err
	}
	if err := m.elections.AddStake(ctx, electionId, nanostake); err != nil {
		return err
	}
	if err := m.policy.ConfirmStake(ctx, electionId); err != nil {
		return err
	}

	m.log.Info("stake for election", electionId, "is in place")
	return nil
}

func (m *Manager) provisionKeys(ctx context.Context, electionId, electionStop uint32, rec store.ElectionRecord) (store.ElectionRecord, error) {
	validatorKey, err := m.console.GenerateKeyPair(ctx)
	if err != nil {
		return rec, err
	}
	adnlKey, err := m.console.GenerateKeyPair(ctx)
	if err != nil {
		return rec, err
	}

	rec.ValidatorKey = validatorKey.Key
	rec.ADNLKey = adnlKey.Key
	rec.KeySecrets = []string{validatorKey.Secret, adnlKey.Secret}

	if err := m.console.RegisterValidator(ctx, electionId, electionStop, rec.ValidatorKey, rec.ADNLKey); err != nil {
		return rec, err
	}
	// Persist before going any further so a crash never strands
	// registered keys outside the store.
	if err := m.elections.UpsertRecord(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// stakeAmount resolves the nanotoken amount for the next submission.
// A stored operator override wins over the policy default and stays
// in place until the operator changes it.
func (m *Manager) stakeAmount(ctx context.Context) (int64, error) {
	if !m.policy.AllowCustomStake() {
		return m.policy.DefaultStake(), nil
	}
	override, err := m.settings.NextStakeSize(ctx)
	if err != nil {
		return 0, err
	}
	if override.IsSome() {
		return override.Unwrap() * nanotokens, nil
	}
	return m.policy.DefaultStake(), nil
}

// RecoverStake pulls back whatever the elector is ready to return to
// the wallet. A zero claim is a no-op.
func (m *Manager) RecoverStake(ctx context.Context) error {
	wallet := m.conf.Get().WalletAddr
	parts := strings.SplitN(wallet, ":", 2)
	accountId := parts[len(parts)-1]

	amount, err := m.elector.ComputeReturnedStake(ctx, accountId)
	if err != nil {
		return err
	}
	if amount == 0 {
		m.log.Debug("no stake to recover")
		return nil
	}
	m.log.Info("recovering", amount, "nanotokens")

	payload, err := m.fift.BuildRecoverQuery(ctx)
	if err != nil {
		return err
	}
	dest, err := m.cfg.ElectorAddr(ctx)
	if err != nil {
		return err
	}
	return m.tx.SubmitTransaction(ctx, tools.SubmitTransactionParams{
		Dest:    dest,
		Value:   recoverQueryValue,
		Bounce:  true,
		Payload: payload,
	}, m.conf.Get().SendAttempts)
}

// RestoreKeys re-imports stored key material into the node for every
// election the elector still tracks plus the active one. Records
// missing their secrets are reported but do not stop the rest of the
// batch.
func (m *Manager) RestoreKeys(ctx context.Context) error {
	ids, err := m.elector.PastElectionIds(ctx)
	if err != nil {
		return err
	}
	active, err := m.elector.ActiveElectionId(ctx)
	if err != nil {
		return err
	}
	if active != 0 {
		ids = append(ids, active)
	}
	period, err := m.cfg.ValidationPeriod(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range ids {
		if err := m.restoreElectionKeys(ctx, id, id+period); err != nil {
			errs = append(errs, fmt.Errorf("election %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) restoreElectionKeys(ctx context.Context, electionId, electionStop uint32) error {
	rec, err := m.elections.GetRecord(ctx, electionId)
	if err != nil {
		return err
	}
	if !rec.Provisioned() || len(rec.KeySecrets) == 0 {
		return ErrIncompleteRecord
	}
	for _, secret := range rec.KeySecrets {
		if err := m.console.ImportSecret(ctx, secret); err != nil {
			return err
		}
	}
	return m.console.RegisterValidator(ctx, electionId, electionStop, rec.ValidatorKey, rec.ADNLKey)
}
