package staking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ton-staking-manager/lib/logger"
	store "ton-staking-manager/modules/db/staking"
	"ton-staking-manager/modules/tools"
)

// DePool event names the policy reacts to.
const (
	eventStakeSigningRequested    = "StakeSigningRequested"
	eventRoundStakeIsAccepted     = "RoundStakeIsAccepted"
	eventRoundStakeIsRejected     = "RoundStakeIsRejected"
	eventProxyHasRejectedTheStake = "ProxyHasRejectedTheStake"
)

const (
	// Nominal value carried by the payload message; the pool funds the
	// actual stake.
	depoolMessageValue = 1_000_000_000

	// How far back to scan emitted events before falling back to a
	// live subscription.
	eventLookback = 24 * time.Hour

	ticktockInterval = time.Minute
)

// DePoolPolicy stakes through a DePool contract. The pool announces the
// proxy to elect through via a StakeSigningRequested event and reports
// the verdict on a submitted stake the same way.
type DePoolPolicy struct {
	depoolAddr    string
	timeout       time.Duration
	ticktockDelay time.Duration

	tx      *Transactor
	chain   ChainReader
	decoder EventDecoder
	log     logger.Logger
}

func NewDePoolPolicy(depoolAddr string, timeout time.Duration, tx *Transactor, chain ChainReader, decoder EventDecoder, log logger.Logger) *DePoolPolicy {
	return &DePoolPolicy{
		depoolAddr:    depoolAddr,
		timeout:       timeout,
		ticktockDelay: ticktockInterval,
		tx:            tx,
		chain:         chain,
		decoder:       decoder,
		log:           log,
	}
}

func (p *DePoolPolicy) SourceAddress(ctx context.Context, electionId uint32) (string, error) {
	// Two ticktocks a minute apart give the pool a chance to open its
	// round and emit the signing request before we go looking for it.
	if err := p.tx.SendTicktock(ctx, p.depoolAddr, 2, p.ticktockDelay); err != nil {
		return "", err
	}

	match := func(ev tools.DecodedEvent) bool {
		return ev.Name == eventStakeSigningRequested &&
			fmt.Sprint(ev.Value["electionId"]) == fmt.Sprint(electionId)
	}

	// Recent history first: the event may predate this process.
	since := time.Now().Add(-eventLookback).Unix()
	bodies, err := p.chain.MessagesFrom(ctx, p.depoolAddr, since)
	if err != nil {
		return "", err
	}
	for i := len(bodies) - 1; i >= 0; i-- {
		ev, ok, err := p.decoder.DecodeEventBody(ctx, bodies[i])
		if err != nil {
			return "", err
		}
		if ok && match(ev) {
			return fmt.Sprint(ev.Value["proxy"]), nil
		}
	}

	ev, err := p.waitForEvent(ctx, match)
	if errors.Is(err, ErrEventWaitTimeout) {
		return "", fmt.Errorf("%w for election %d", ErrProxyResolutionTimeout, electionId)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprint(ev.Value["proxy"]), nil
}

func (p *DePoolPolicy) DestinationAddress(ctx context.Context) (string, error) {
	return p.depoolAddr, nil
}

func (p *DePoolPolicy) DefaultStake() int64 {
	return depoolMessageValue
}

func (p *DePoolPolicy) AllowCustomStake() bool {
	return false
}

func (p *DePoolPolicy) CheckPreconditions(ctx context.Context, rec store.ElectionRecord, nanostake int64) error {
	// The pool carries the funds and enforces its own limits.
	return nil
}

func (p *DePoolPolicy) ConfirmStake(ctx context.Context, electionId uint32) error {
	ev, err := p.waitForEvent(ctx, func(ev tools.DecodedEvent) bool {
		switch ev.Name {
		case eventRoundStakeIsAccepted, eventRoundStakeIsRejected, eventProxyHasRejectedTheStake:
			return true
		}
		return false
	})
	if err != nil {
		return err
	}
	if ev.Name != eventRoundStakeIsAccepted {
		return fmt.Errorf("%w: %s", ErrStakeRejected, ev.Name)
	}
	p.log.Info("depool accepted the stake for election", electionId)
	return nil
}

func (p *DePoolPolicy) OnElectionsClosed(ctx context.Context) error {
	// A single ticktock lets the pool complete the closed round and
	// recover its stakes.
	return p.tx.SendTicktock(ctx, p.depoolAddr, 1, 0)
}

func (p *DePoolPolicy) AllowRepeat() bool {
	return false
}

// waitForEvent subscribes to the pool's emitted messages and returns
// the first decoded event match accepts. Exactly one of three outcomes
// ends the wait: a match, the policy timeout, or ctx cancellation. The
// subscription is torn down before returning in every case.
func (p *DePoolPolicy) waitForEvent(ctx context.Context, match func(tools.DecodedEvent) bool) (tools.DecodedEvent, error) {
	bodies, cancel, err := p.chain.SubscribeMessages(ctx, p.depoolAddr)
	if err != nil {
		return tools.DecodedEvent{}, err
	}
	defer cancel()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return tools.DecodedEvent{}, ctx.Err()
		case <-timer.C:
			return tools.DecodedEvent{}, ErrEventWaitTimeout
		case body, open := <-bodies:
			if !open {
				return tools.DecodedEvent{}, ErrSubscriptionClosed
			}
			ev, ok, err := p.decoder.DecodeEventBody(ctx, body)
			if err != nil {
				return tools.DecodedEvent{}, err
			}
			if ok && match(ev) {
				return ev, nil
			}
		}
	}
}
