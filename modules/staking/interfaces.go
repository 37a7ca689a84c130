package staking

import (
	"context"
	"encoding/json"

	"ton-staking-manager/modules/chain"
	"ton-staking-manager/modules/tools"
)

// The orchestrator depends on its collaborators through these narrow
// interfaces; the concrete implementations live in modules/chain and
// modules/tools.

// SigningToolchain is the validator-engine-console surface.
type SigningToolchain interface {
	GenerateKeyPair(ctx context.Context) (tools.KeyPair, error)
	ImportSecret(ctx context.Context, secret string) error
	ExportPublicKey(ctx context.Context, key string) (string, error)
	Sign(ctx context.Context, key string, request string) (string, error)
	RegisterValidator(ctx context.Context, electionStart, electionStop uint32, key, adnlKey string) error
	TimeDiff(ctx context.Context) (int64, error)
}

// PayloadBuilder produces election request/payload blobs (fift).
type PayloadBuilder interface {
	BuildElectionRequest(ctx context.Context, walletAddr string, electionStart uint32, maxFactor int, adnlKey string) (string, error)
	BuildSignedElectionPayload(ctx context.Context, walletAddr string, electionStart uint32, maxFactor int, adnlKey, publicKey, signature string) (string, error)
	BuildRecoverQuery(ctx context.Context) (string, error)
}

// MessageEncoder signs and serializes wallet transactions (tonos-cli).
type MessageEncoder interface {
	EncodeSubmitTransaction(ctx context.Context, p tools.SubmitTransactionParams) (chain.EncodedMessage, error)
	EncodeTicktockBody(ctx context.Context) (string, error)
}

// EventDecoder decodes DePool event bodies (tonos-cli).
type EventDecoder interface {
	DecodeEventBody(ctx context.Context, body string) (tools.DecodedEvent, bool, error)
}

// ElectorReader is the elector contract's read interface.
type ElectorReader interface {
	ActiveElectionId(ctx context.Context) (uint32, error)
	ComputeReturnedStake(ctx context.Context, accountId string) (int64, error)
	PastElectionIds(ctx context.Context) ([]uint32, error)
	ParticipantListExtended(ctx context.Context) (*chain.ParticipantList, error)
	PastElectionsTotalStakes(ctx context.Context) ([]int64, error)
}

// NetworkConfig is the chain config reader surface.
type NetworkConfig interface {
	Get(ctx context.Context, id int) (json.RawMessage, error)
	ValidationPeriod(ctx context.Context) (uint32, error)
	MinStake(ctx context.Context) (int64, error)
	ElectorAddr(ctx context.Context) (string, error)
	CurrentValidatorSet(ctx context.Context) (*chain.ValidatorSet, error)
	NextValidatorSetPresent(ctx context.Context) (bool, error)
}

// ChainReader covers the collection reads outside the elector:
// balances, historical messages, live message subscriptions and block
// signature aggregation.
type ChainReader interface {
	AccountBalance(ctx context.Context, addr string) (int64, error)
	MessagesFrom(ctx context.Context, src string, since int64) ([]string, error)
	SubscribeMessages(ctx context.Context, src string) (<-chan string, func(), error)
	CountBlockSignatures(ctx context.Context, keys []string, from int64, to int64) (int64, error)
}
