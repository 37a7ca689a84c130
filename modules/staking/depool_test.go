package staking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ton-staking-manager/lib/logger"
	"ton-staking-manager/modules/tools"
)

func newDePoolPolicy(ch *fakeChain, dec *fakeDecoder, gw *fakeGateway) *DePoolPolicy {
	log := logger.PrefixedLogger{Prefix: "test"}
	p := NewDePoolPolicy(testDePool, 200*time.Millisecond, NewTransactor(&fakeEncoder{}, gw, log), ch, dec, log)
	p.ticktockDelay = 0
	return p
}

func signingRequested(electionId, proxy string) tools.DecodedEvent {
	return tools.DecodedEvent{
		Name:  eventStakeSigningRequested,
		Value: map[string]any{"electionId": electionId, "proxy": proxy},
	}
}

func TestDePoolProxyFromHistory(t *testing.T) {
	ch := &fakeChain{history: []string{"old", "wanted"}}
	dec := &fakeDecoder{events: map[string]tools.DecodedEvent{
		"old":    signingRequested("999", "0:stale"),
		"wanted": signingRequested("1000", "0:proxy"),
	}}
	gw := &fakeGateway{}
	p := newDePoolPolicy(ch, dec, gw)

	addr, err := p.SourceAddress(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, "0:proxy", addr)
	// The two opening ticktocks went out before the scan.
	assert.Equal(t, 2, gw.count())
}

func TestDePoolProxyFromSubscription(t *testing.T) {
	ch := &fakeChain{sub: make(chan string, 2)}
	dec := &fakeDecoder{events: map[string]tools.DecodedEvent{
		"live": signingRequested("1000", "0:proxy"),
	}}
	p := newDePoolPolicy(ch, dec, &fakeGateway{})

	ch.sub <- "noise"
	ch.sub <- "live"

	addr, err := p.SourceAddress(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, "0:proxy", addr)
	assert.True(t, ch.subCancelled)
}

func TestDePoolProxyTimeout(t *testing.T) {
	ch := &fakeChain{sub: make(chan string)}
	p := newDePoolPolicy(ch, &fakeDecoder{}, &fakeGateway{})

	_, err := p.SourceAddress(context.Background(), 1000)
	assert.ErrorIs(t, err, ErrProxyResolutionTimeout)
	assert.True(t, ch.subCancelled)
}

func TestDePoolProxyCancelled(t *testing.T) {
	ch := &fakeChain{sub: make(chan string)}
	p := newDePoolPolicy(ch, &fakeDecoder{}, &fakeGateway{})
	p.timeout = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.SourceAddress(ctx, 1000)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, ch.subCancelled)
}

func TestDePoolSubscriptionClosed(t *testing.T) {
	sub := make(chan string)
	close(sub)
	ch := &fakeChain{sub: sub}
	p := newDePoolPolicy(ch, &fakeDecoder{}, &fakeGateway{})
	p.timeout = time.Minute

	// A dead subscription surfaces immediately instead of idling out
	// the full event timeout.
	start := time.Now()
	_, err := p.SourceAddress(context.Background(), 1000)
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.True(t, ch.subCancelled)
}

func TestDePoolConfirmStakeAccepted(t *testing.T) {
	ch := &fakeChain{sub: make(chan string, 1)}
	dec := &fakeDecoder{events: map[string]tools.DecodedEvent{
		"verdict": {Name: eventRoundStakeIsAccepted, Value: map[string]any{}},
	}}
	p := newDePoolPolicy(ch, dec, &fakeGateway{})

	ch.sub <- "verdict"
	require.NoError(t, p.ConfirmStake(context.Background(), 1000))
}

func TestDePoolConfirmStakeRejected(t *testing.T) {
	for _, name := range []string{eventRoundStakeIsRejected, eventProxyHasRejectedTheStake} {
		ch := &fakeChain{sub: make(chan string, 1)}
		dec := &fakeDecoder{events: map[string]tools.DecodedEvent{
			"verdict": {Name: name, Value: map[string]any{}},
		}}
		p := newDePoolPolicy(ch, dec, &fakeGateway{})

		ch.sub <- "verdict"
		err := p.ConfirmStake(context.Background(), 1000)
		assert.ErrorIs(t, err, ErrStakeRejected)
		assert.Contains(t, err.Error(), name)
	}
}

func TestEventTimeoutClamp(t *testing.T) {
	assert.Equal(t, minEventTimeout, eventTimeout(stakingConfig{EventTimeoutSec: 0}))
	assert.Equal(t, minEventTimeout, eventTimeout(stakingConfig{EventTimeoutSec: 5}))
	assert.Equal(t, 120*time.Second, eventTimeout(stakingConfig{EventTimeoutSec: 120}))
	assert.Equal(t, maxEventTimeout, eventTimeout(stakingConfig{EventTimeoutSec: 3600}))
}
