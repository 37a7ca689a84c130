package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ton-staking-manager/lib/logger"
	"ton-staking-manager/modules/chain"
	store "ton-staking-manager/modules/db/staking"
	"ton-staking-manager/modules/staking"
)

type fakeService struct {
	mu        sync.Mutex
	sent      chan bool
	recovered chan struct{}
	restored  chan struct{}

	nextStake int64
	skip      bool
	balance   int64
	activeId  uint32
}

func newFakeService() *fakeService {
	return &fakeService{
		sent:      make(chan bool, 1),
		recovered: make(chan struct{}, 1),
		restored:  make(chan struct{}, 1),
		nextStake: 10001,
		balance:   42,
		activeId:  1700000000,
	}
}

func (f *fakeService) SendStake(ctx context.Context, force bool) error {
	f.sent <- force
	return nil
}

func (f *fakeService) RecoverStake(ctx context.Context) error {
	f.recovered <- struct{}{}
	return nil
}

func (f *fakeService) RestoreKeys(ctx context.Context) error {
	f.restored <- struct{}{}
	return nil
}

func (f *fakeService) ActiveElectionId(ctx context.Context) (uint32, error) {
	return f.activeId, nil
}

func (f *fakeService) WalletBalance(ctx context.Context) (int64, error) {
	return f.balance, nil
}

func (f *fakeService) NextStakeSize(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextStake, nil
}

func (f *fakeService) SetNextStakeSize(ctx context.Context, tokens int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextStake = tokens
	return nil
}

func (f *fakeService) SkipNextElections(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.skip, nil
}

func (f *fakeService) SetSkipNextElections(ctx context.Context, skip bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skip = skip
	return nil
}

func (f *fakeService) ElectionsHistory(ctx context.Context) ([]store.ElectionRecord, error) {
	return []store.ElectionRecord{{Id: 1, Stake: 10}}, nil
}

func (f *fakeService) Participants(ctx context.Context) (*chain.ParticipantList, error) {
	return &chain.ParticipantList{TotalStake: 100}, nil
}

func (f *fakeService) ConfigParam(ctx context.Context, id int) (json.RawMessage, error) {
	return json.RawMessage(`{"validators_elected_for":65536}`), nil
}

func (f *fakeService) TimeDiff(ctx context.Context) (int64, error) {
	return -2, nil
}

func (f *fakeService) Stats(ctx context.Context, signedInterval time.Duration) (*staking.Stats, error) {
	return &staking.Stats{TimeDiff: -2, Stake: 3000, Weight: 0.6, BlocksSignatures: 42}, nil
}

func newTestServer(t *testing.T, update func(*apiConfig)) (*server, *fakeService) {
	t.Helper()
	conf := NewApiConfig(t.TempDir())
	require.NoError(t, conf.Init())
	if update != nil {
		require.NoError(t, conf.Update(update))
	}

	service := newFakeService()
	s := New(conf, service, logger.PrefixedLogger{Prefix: "test"})
	require.NoError(t, s.Init())
	return s, service
}

func do(s *server, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestSendStakeEndpoint(t *testing.T) {
	s, service := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/stake/send?force=true", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case force := <-service.sent:
		assert.True(t, force)
	case <-time.After(time.Second):
		t.Fatal("SendStake was not triggered")
	}
}

func TestRecoverStakeEndpoint(t *testing.T) {
	s, service := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/stake/recover", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-service.recovered:
	case <-time.After(time.Second):
		t.Fatal("RecoverStake was not triggered")
	}
}

func TestResumeValidationEndpoint(t *testing.T) {
	s, service := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/validation/resume", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-service.restored:
	case <-time.After(time.Second):
		t.Fatal("RestoreKeys was not triggered")
	}
}

func TestResizeStake(t *testing.T) {
	s, service := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/stake/resize", []byte(`{"size": 20000}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(20000), service.nextStake)

	rec = do(s, http.MethodPost, "/stake/resize", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSkipAndParticipate(t *testing.T) {
	s, service := newTestServer(t, nil)

	rec := do(s, http.MethodPost, "/elections/skip", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, service.skip)

	rec = do(s, http.MethodPost, "/elections/participate", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, service.skip)
}

func TestReadEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/elections/active", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"electionId": 1700000000}`, rec.Body.String())

	rec = do(s, http.MethodGet, "/wallet/balance", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"balance": 42}`, rec.Body.String())

	rec = do(s, http.MethodGet, "/config/15", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"validators_elected_for": 65536}`, rec.Body.String())

	rec = do(s, http.MethodGet, "/node/timediff", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"timeDiff": -2}`, rec.Body.String())
}

func TestStatsEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, http.MethodGet, "/stats/json", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, float64(42), stats["blocksSignatures"])

	rec = do(s, http.MethodGet, "/stats/influxdb?measurement=validator", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "validator ")
	assert.Contains(t, rec.Body.String(), "blocksSignatures=42i")
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t, func(c *apiConfig) { c.AuthToken = "secret" })

	rec := do(s, http.MethodGet, "/wallet/balance", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/wallet/balance", nil)
	req.Header.Set("Authorization", "Bearer secret")
	res := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
}
