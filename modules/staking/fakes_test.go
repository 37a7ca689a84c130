package staking

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/chebyrash/promise"
	"github.com/moznion/go-optional"

	"ton-staking-manager/lib/utils"
	"ton-staking-manager/modules/chain"
	store "ton-staking-manager/modules/db/staking"
	"ton-staking-manager/modules/tools"
)

type fakeElections struct {
	mu      sync.Mutex
	recs    map[uint32]store.ElectionRecord
	upserts int
}

func newFakeElections() *fakeElections {
	return &fakeElections{recs: map[uint32]store.ElectionRecord{}}
}

func (f *fakeElections) Init() error                  { return nil }
func (f *fakeElections) Start() *promise.Promise[any] { return utils.PromiseResolve[any](nil) }
func (f *fakeElections) Stop() error                  { return nil }

func (f *fakeElections) GetRecord(ctx context.Context, id uint32) (store.ElectionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.recs[id]; ok {
		return rec, nil
	}
	return store.ElectionRecord{Id: id}, nil
}

func (f *fakeElections) AllRecords(ctx context.Context) ([]store.ElectionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var recs []store.ElectionRecord
	for _, rec := range f.recs {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Id < recs[j].Id })
	return recs, nil
}

func (f *fakeElections) UpsertRecord(ctx context.Context, rec store.ElectionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	cur := f.recs[rec.Id]
	cur.Id = rec.Id
	if rec.ValidatorKey != "" {
		cur.ValidatorKey = rec.ValidatorKey
	}
	if rec.ADNLKey != "" {
		cur.ADNLKey = rec.ADNLKey
	}
	if len(rec.KeySecrets) > 0 {
		cur.KeySecrets = rec.KeySecrets
	}
	if rec.PublicKey != "" {
		cur.PublicKey = rec.PublicKey
	}
	if rec.Signature != "" {
		cur.Signature = rec.Signature
	}
	f.recs[rec.Id] = cur
	return nil
}

func (f *fakeElections) AddStake(ctx context.Context, id uint32, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur := f.recs[id]
	cur.Id = id
	cur.Stake += amount
	f.recs[id] = cur
	return nil
}

type fakeSettings struct {
	mu   sync.Mutex
	next optional.Option[int64]
	skip bool
}

func (f *fakeSettings) Init() error                  { return nil }
func (f *fakeSettings) Start() *promise.Promise[any] { return utils.PromiseResolve[any](nil) }
func (f *fakeSettings) Stop() error                  { return nil }

func (f *fakeSettings) NextStakeSize(ctx context.Context) (optional.Option[int64], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next, nil
}

func (f *fakeSettings) SetNextStakeSize(ctx context.Context, value optional.Option[int64]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next = value
	return nil
}

func (f *fakeSettings) SkipNextElections(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.skip, nil
}

func (f *fakeSettings) SetSkipNextElections(ctx context.Context, skip bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skip = skip
	return nil
}

type fakeChain struct {
	mu           sync.Mutex
	balance      int64
	history      []string
	sub          chan string
	subCancelled bool
	signatures   int64
}

func (f *fakeChain) AccountBalance(ctx context.Context, addr string) (int64, error) {
	return f.balance, nil
}

func (f *fakeChain) MessagesFrom(ctx context.Context, src string, since int64) ([]string, error) {
	return f.history, nil
}

func (f *fakeChain) SubscribeMessages(ctx context.Context, src string) (<-chan string, func(), error) {
	return f.sub, func() {
		f.mu.Lock()
		f.subCancelled = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeChain) CountBlockSignatures(ctx context.Context, keys []string, from int64, to int64) (int64, error) {
	return f.signatures, nil
}

type fakeNetworkConfig struct {
	validationPeriod uint32
	minStake         int64
	electorAddr      string
	vset             *chain.ValidatorSet
	nextSetPresent   bool
}

func (f *fakeNetworkConfig) Get(ctx context.Context, id int) (json.RawMessage, error) {
	return json.RawMessage("null"), nil
}

func (f *fakeNetworkConfig) ValidationPeriod(ctx context.Context) (uint32, error) {
	return f.validationPeriod, nil
}

func (f *fakeNetworkConfig) MinStake(ctx context.Context) (int64, error) {
	return f.minStake, nil
}

func (f *fakeNetworkConfig) ElectorAddr(ctx context.Context) (string, error) {
	return f.electorAddr, nil
}

func (f *fakeNetworkConfig) CurrentValidatorSet(ctx context.Context) (*chain.ValidatorSet, error) {
	if f.vset == nil {
		return nil, chain.ErrConfigUnavailable
	}
	return f.vset, nil
}

func (f *fakeNetworkConfig) NextValidatorSetPresent(ctx context.Context) (bool, error) {
	return f.nextSetPresent, nil
}

type fakeElector struct {
	activeId uint32
	returned int64
	pastIds  []uint32
	plist    *chain.ParticipantList
	totals   []int64
}

func (f *fakeElector) ActiveElectionId(ctx context.Context) (uint32, error) {
	return f.activeId, nil
}

func (f *fakeElector) ComputeReturnedStake(ctx context.Context, accountId string) (int64, error) {
	return f.returned, nil
}

func (f *fakeElector) PastElectionIds(ctx context.Context) ([]uint32, error) {
	return f.pastIds, nil
}

func (f *fakeElector) ParticipantListExtended(ctx context.Context) (*chain.ParticipantList, error) {
	if f.plist == nil {
		return &chain.ParticipantList{}, nil
	}
	return f.plist, nil
}

func (f *fakeElector) PastElectionsTotalStakes(ctx context.Context) ([]int64, error) {
	return f.totals, nil
}

type fakeConsole struct {
	mu         sync.Mutex
	generated  int
	imported   []string
	registered int
	timeDiff   int64
}

func (f *fakeConsole) GenerateKeyPair(ctx context.Context) (tools.KeyPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generated++
	return tools.KeyPair{
		Key:    fmt.Sprintf("KEY%d", f.generated),
		Secret: fmt.Sprintf("SECRET%d", f.generated),
	}, nil
}

func (f *fakeConsole) ImportSecret(ctx context.Context, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imported = append(f.imported, secret)
	return nil
}

func (f *fakeConsole) ExportPublicKey(ctx context.Context, key string) (string, error) {
	return "PUB-" + key, nil
}

func (f *fakeConsole) Sign(ctx context.Context, key string, request string) (string, error) {
	return "SIG-" + request, nil
}

func (f *fakeConsole) RegisterValidator(ctx context.Context, electionStart, electionStop uint32, key, adnlKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered++
	return nil
}

func (f *fakeConsole) TimeDiff(ctx context.Context) (int64, error) {
	return f.timeDiff, nil
}

type fakeFift struct{}

func (fakeFift) BuildElectionRequest(ctx context.Context, walletAddr string, electionStart uint32, maxFactor int, adnlKey string) (string, error) {
	return "REQUEST", nil
}

func (fakeFift) BuildSignedElectionPayload(ctx context.Context, walletAddr string, electionStart uint32, maxFactor int, adnlKey, publicKey, signature string) (string, error) {
	return "PAYLOAD", nil
}

func (fakeFift) BuildRecoverQuery(ctx context.Context) (string, error) {
	return "RECOVER", nil
}

type fakeEncoder struct {
	mu      sync.Mutex
	encoded []tools.SubmitTransactionParams
}

func (f *fakeEncoder) EncodeSubmitTransaction(ctx context.Context, p tools.SubmitTransactionParams) (chain.EncodedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.encoded = append(f.encoded, p)
	return chain.EncodedMessage{
		Id:   fmt.Sprintf("%064d", len(f.encoded)),
		Body: "BODY",
	}, nil
}

func (f *fakeEncoder) EncodeTicktockBody(ctx context.Context) (string, error) {
	return "TICKTOCK", nil
}

func (f *fakeEncoder) last() tools.SubmitTransactionParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.encoded[len(f.encoded)-1]
}

type fakeDecoder struct {
	events map[string]tools.DecodedEvent
}

func (f *fakeDecoder) DecodeEventBody(ctx context.Context, body string) (tools.DecodedEvent, bool, error) {
	ev, ok := f.events[body]
	return ev, ok, nil
}

// fakeGateway counts submissions; results are consumed in order, with
// success assumed once the queue is drained. entered/release turn on
// blocking mode for concurrency tests.
type fakeGateway struct {
	mu      sync.Mutex
	submits int
	results []error
	fail    []bool

	entered chan struct{}
	release chan struct{}
}

func (f *fakeGateway) RunGet(ctx context.Context, accountBOC string, function string, input ...string) ([]any, error) {
	return nil, nil
}

func (f *fakeGateway) Submit(ctx context.Context, msg chain.EncodedMessage) (chain.SubmitResult, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.submits
	f.submits++
	if n < len(f.results) && f.results[n] != nil {
		return chain.SubmitResult{}, f.results[n]
	}
	if n < len(f.fail) && f.fail[n] {
		return chain.SubmitResult{Success: false}, nil
	}
	return chain.SubmitResult{Success: true}, nil
}

func (f *fakeGateway) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}
