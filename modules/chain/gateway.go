package chain

import (
	"context"
	"encoding/json"
	"time"

	"ton-staking-manager/lib/logger"
)

// EncodedMessage is a signed external message prepared by the toolchain:
// the message hash and the base64 BOC body.
type EncodedMessage struct {
	Id   string
	Body string
}

type SubmitResult struct {
	Success bool
}

// Gateway is the narrow RPC contract the orchestrator depends on: a
// read-only get-method call against an account state and an external
// message injection.
type Gateway interface {
	RunGet(ctx context.Context, accountBOC string, function string, input ...string) ([]any, error)
	Submit(ctx context.Context, msg EncodedMessage) (SubmitResult, error)
}

type gateway struct {
	client *Client
	log    logger.Logger

	// Single-flight slot for run-get: the call is served by the local
	// node process which does not take kindly to concurrent requests.
	runGetSlot chan struct{}
}

var _ Gateway = &gateway{}

func NewGateway(client *Client, log logger.Logger) Gateway {
	return &gateway{
		client:     client,
		log:        log,
		runGetSlot: make(chan struct{}, 1),
	}
}

func (g *gateway) RunGet(ctx context.Context, accountBOC string, function string, input ...string) ([]any, error) {
	select {
	case g.runGetSlot <- struct{}{}:
		defer func() { <-g.runGetSlot }()
	case <-ctx.Done():
		return nil, &RpcError{Op: "run_get " + function, Err: ctx.Err()}
	}

	query := `query ($account: String!, $function: String!, $input: [String]) {
		runGet(account: $account, functionName: $function, input: $input) { output }
	}`
	var resp struct {
		RunGet struct {
			Output json.RawMessage `json:"output"`
		} `json:"runGet"`
	}
	vars := map[string]any{
		"account":  accountBOC,
		"function": function,
		"input":    input,
	}
	if err := g.client.gql.Exec(ctx, query, &resp, vars); err != nil {
		return nil, &RpcError{Op: "run_get " + function, Err: err}
	}

	var output []any
	if len(resp.RunGet.Output) > 0 {
		if err := json.Unmarshal(resp.RunGet.Output, &output); err != nil {
			return nil, &RpcError{Op: "run_get " + function, Err: err}
		}
	}
	return output, nil
}

const confirmPollInterval = 2 * time.Second

// Submit posts the message and waits for its transaction. A missing or
// unsuccessful transaction is reported as {Success: false}, not as an
// error: the retry policy above decides what to do with it.
func (g *gateway) Submit(ctx context.Context, msg EncodedMessage) (SubmitResult, error) {
	if err := g.client.PostMessage(ctx, msg.Id, msg.Body); err != nil {
		return SubmitResult{}, err
	}

	timeout := time.Duration(g.client.conf.Get().ConfirmTimeoutSec) * time.Second
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return SubmitResult{}, &RpcError{Op: "submit", Err: ctx.Err()}
		case <-ticker.C:
			found, success, err := g.client.TransactionResult(ctx, msg.Id)
			if err != nil {
				return SubmitResult{}, err
			}
			if found {
				return SubmitResult{Success: success}, nil
			}
			if time.Now().After(deadline) {
				g.log.Debug("submit: no transaction for message", msg.Id, "within", timeout)
				return SubmitResult{Success: false}, nil
			}
		}
	}
}
