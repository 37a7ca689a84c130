package staking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ton-staking-manager/lib/logger"
	"ton-staking-manager/modules/chain"
	"ton-staking-manager/modules/tools"
)

func newTestTransactor(gw *fakeGateway) (*Transactor, *fakeEncoder) {
	enc := &fakeEncoder{}
	return NewTransactor(enc, gw, logger.PrefixedLogger{Prefix: "test"}), enc
}

func TestSubmitTransactionFirstTry(t *testing.T) {
	gw := &fakeGateway{}
	tx, enc := newTestTransactor(gw)

	err := tx.SubmitTransaction(context.Background(), tools.SubmitTransactionParams{Dest: "0:x"}, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.count())
	assert.Len(t, enc.encoded, 1)
}

func TestSubmitTransactionRetriesTransportErrors(t *testing.T) {
	gw := &fakeGateway{results: []error{&chain.RpcError{Op: "postRequests"}}}
	tx, enc := newTestTransactor(gw)

	start := time.Now()
	err := tx.SubmitTransaction(context.Background(), tools.SubmitTransactionParams{Dest: "0:x"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, gw.count())
	// Each retry re-encodes so the envelope expiry stays valid.
	assert.Len(t, enc.encoded, 2)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestSubmitTransactionExhaustsAttempts(t *testing.T) {
	gw := &fakeGateway{fail: []bool{true, true}}
	tx, _ := newTestTransactor(gw)

	err := tx.SubmitTransaction(context.Background(), tools.SubmitTransactionParams{Dest: "0:x"}, 2)
	assert.ErrorIs(t, err, ErrSubmitFailed)
	assert.Equal(t, 2, gw.count())
}

func TestSubmitTransactionHonorsCancellation(t *testing.T) {
	gw := &fakeGateway{fail: []bool{true, true, true}}
	tx, _ := newTestTransactor(gw)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	err := tx.SubmitTransaction(ctx, tools.SubmitTransactionParams{Dest: "0:x"}, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, gw.count())
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, time.Second, retryDelay(1))
	assert.Equal(t, 2*time.Second, retryDelay(2))
	assert.Equal(t, 32*time.Second, retryDelay(6))
	assert.Equal(t, maxRetryDelay, retryDelay(7))
	assert.Equal(t, maxRetryDelay, retryDelay(64))
}

func TestSendTicktock(t *testing.T) {
	gw := &fakeGateway{}
	tx, enc := newTestTransactor(gw)

	require.NoError(t, tx.SendTicktock(context.Background(), testDePool, 2, 0))
	assert.Equal(t, 2, gw.count())
	last := enc.last()
	assert.Equal(t, testDePool, last.Dest)
	assert.Equal(t, int64(ticktockValue), last.Value)
	assert.Equal(t, "TICKTOCK", last.Payload)
}
