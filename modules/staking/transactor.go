package staking

import (
	"context"
	"fmt"
	"time"

	"ton-staking-manager/lib/logger"
	"ton-staking-manager/lib/utils"
	"ton-staking-manager/modules/chain"
	"ton-staking-manager/modules/tools"
)

const (
	// Value attached to a ticktock call, nanotokens.
	ticktockValue = 500_000_000
	// Bounded retry cap for ticktock submissions; election payloads use
	// the configured attempt count instead.
	ticktockAttempts = 5

	maxRetryDelay = 60 * time.Second
)

// Transactor submits signed wallet transactions with bounded retries.
// Each attempt builds a fresh message so the expiry stamped into the
// envelope stays valid.
type Transactor struct {
	enc MessageEncoder
	gw  chain.Gateway
	log logger.Logger
}

func NewTransactor(enc MessageEncoder, gw chain.Gateway, log logger.Logger) *Transactor {
	return &Transactor{enc: enc, gw: gw, log: log}
}

func retryDelay(attempt int) time.Duration {
	d := time.Second << (attempt - 1)
	if d > maxRetryDelay || d <= 0 {
		return maxRetryDelay
	}
	return d
}

// SubmitTransaction encodes and posts p, waiting for on-chain
// confirmation. Failed attempts back off exponentially; once attempts
// are exhausted the last failure is reported with ErrSubmitFailed.
func (t *Transactor) SubmitTransaction(ctx context.Context, p tools.SubmitTransactionParams, attempts int) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := utils.SleepContext(ctx, retryDelay(attempt-1)); err != nil {
				return err
			}
		}

		msg, err := t.enc.EncodeSubmitTransaction(ctx, p)
		if err != nil {
			return err
		}
		res, err := t.gw.Submit(ctx, msg)
		if err != nil {
			t.log.Error("submit attempt", attempt, "failed:", err)
			lastErr = err
			continue
		}
		if !res.Success {
			t.log.Error("submit attempt", attempt, "was not confirmed")
			lastErr = nil
			continue
		}
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("%w after %d attempts: %w", ErrSubmitFailed, attempts, lastErr)
	}
	return fmt.Errorf("%w after %d attempts", ErrSubmitFailed, attempts)
}

// SendTicktock nudges the DePool contract times times, delay apart.
func (t *Transactor) SendTicktock(ctx context.Context, depoolAddr string, times int, delay time.Duration) error {
	body, err := t.enc.EncodeTicktockBody(ctx)
	if err != nil {
		return err
	}
	for i := 0; i < times; i++ {
		if i > 0 {
			if err := utils.SleepContext(ctx, delay); err != nil {
				return err
			}
		}
		err := t.SubmitTransaction(ctx, tools.SubmitTransactionParams{
			Dest:    depoolAddr,
			Value:   ticktockValue,
			Bounce:  true,
			Payload: body,
		}, ticktockAttempts)
		if err != nil {
			return err
		}
	}
	return nil
}
