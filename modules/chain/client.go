package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"ton-staking-manager/lib/logger"
	"ton-staking-manager/lib/utils"
	a "ton-staking-manager/modules/aggregate"

	"github.com/chebyrash/promise"
	"github.com/hasura/go-graphql-client"
)

// Client talks to the chain's GraphQL API: collection reads, external
// message injection and message subscriptions. One long-lived client is
// shared by the gateway, the config reader and the depool policy.
type Client struct {
	conf ChainConfig
	log  logger.Logger

	gql *graphql.Client
}

var _ a.Plugin = &Client{}

func NewClient(conf ChainConfig, log logger.Logger) *Client {
	return &Client{conf: conf, log: log}
}

// Init implements aggregate.Plugin.
func (c *Client) Init() error {
	c.gql = graphql.NewClient(c.conf.Get().Endpoint, nil)
	return nil
}

// Start implements aggregate.Plugin.
func (c *Client) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

// Stop implements aggregate.Plugin.
func (c *Client) Stop() error {
	return nil
}

// AccountBOC fetches the serialized state of an account, the input for
// local get-method execution.
func (c *Client) AccountBOC(ctx context.Context, addr string) (string, error) {
	var q struct {
		Accounts []struct {
			Boc string `graphql:"boc"`
		} `graphql:"accounts(filter: {id: {eq: $addr}}, limit: 1)"`
	}
	vars := map[string]any{"addr": addr}

	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return "", &RpcError{Op: "account boc", Err: err}
	}
	if len(q.Accounts) == 0 || q.Accounts[0].Boc == "" {
		return "", &RpcError{Op: "account boc", Err: fmt.Errorf("no account %s", addr)}
	}
	return q.Accounts[0].Boc, nil
}

// AccountBalance returns the account balance in nanotokens.
func (c *Client) AccountBalance(ctx context.Context, addr string) (int64, error) {
	var q struct {
		Accounts []struct {
			Balance string `graphql:"balance(format: DEC)"`
		} `graphql:"accounts(filter: {id: {eq: $addr}}, limit: 1)"`
	}
	vars := map[string]any{"addr": addr}

	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return 0, &RpcError{Op: "account balance", Err: err}
	}
	if len(q.Accounts) == 0 {
		return 0, &RpcError{Op: "account balance", Err: fmt.Errorf("no account %s", addr)}
	}
	return strconv.ParseInt(q.Accounts[0].Balance, 10, 64)
}

// KeyBlockConfigParam projects one parameter out of the most recent key
// block's config. subfields is the selection set for structured
// parameters, empty for scalar ones.
func (c *Client) KeyBlockConfigParam(ctx context.Context, id int, subfields string) (json.RawMessage, error) {
	var seqQ struct {
		Blocks []struct {
			PrevKeyBlockSeqno float64 `graphql:"prev_key_block_seqno"`
		} `graphql:"blocks(orderBy: {path: \"seq_no\", direction: DESC}, limit: 1)"`
	}
	if err := c.gql.Query(ctx, &seqQ, nil); err != nil {
		return nil, &RpcError{Op: "key block seqno", Err: err}
	}
	if len(seqQ.Blocks) == 0 {
		return nil, fmt.Errorf("prev_key_block_seqno: %w", ErrConfigUnavailable)
	}
	seqno := seqQ.Blocks[0].PrevKeyBlockSeqno

	// The parameter field name is dynamic (p1, p15, ...), so the query
	// is built as a raw document.
	query := fmt.Sprintf(
		`query ($seqno: Float) { blocks(filter: {seq_no: {eq: $seqno}, workchain_id: {eq: -1}}) { master { config { p%d %s } } } }`,
		id, subfields)
	var resp struct {
		Blocks []struct {
			Master struct {
				Config map[string]json.RawMessage `json:"config"`
			} `json:"master"`
		} `json:"blocks"`
	}
	if err := c.gql.Exec(ctx, query, &resp, map[string]any{"seqno": seqno}); err != nil {
		return nil, &RpcError{Op: "key block config", Err: err}
	}
	if len(resp.Blocks) == 0 {
		return nil, fmt.Errorf("config p%d: %w", id, ErrConfigUnavailable)
	}

	value := resp.Blocks[0].Master.Config[fmt.Sprintf("p%d", id)]
	if len(value) == 0 || string(value) == "null" {
		return nil, fmt.Errorf("config p%d: %w", id, ErrConfigUnavailable)
	}
	return value, nil
}

// MessagesFrom lists the bodies of outbound external messages emitted
// by src since the given unix time, oldest first.
func (c *Client) MessagesFrom(ctx context.Context, src string, since int64) ([]string, error) {
	var q struct {
		Messages []struct {
			Body string `graphql:"body"`
		} `graphql:"messages(filter: {src: {eq: $src}, msg_type: {eq: 2}, created_at: {gt: $since}}, orderBy: {path: \"created_at\"})"`
	}
	vars := map[string]any{
		"src":   src,
		"since": float64(since),
	}

	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return nil, &RpcError{Op: "messages", Err: err}
	}

	bodies := make([]string, 0, len(q.Messages))
	for _, m := range q.Messages {
		if m.Body != "" {
			bodies = append(bodies, m.Body)
		}
	}
	return bodies, nil
}

// PostMessage injects a prepared external message. id is the message
// hash, body the base64 BOC.
func (c *Client) PostMessage(ctx context.Context, id string, body string) error {
	var m struct {
		PostRequests []string `graphql:"postRequests(requests: [{id: $id, body: $body}])"`
	}
	vars := map[string]any{
		"id":   id,
		"body": body,
	}

	if err := c.gql.Mutate(ctx, &m, vars); err != nil {
		return &RpcError{Op: "post message", Err: err}
	}
	return nil
}

// TransactionResult looks for the transaction a posted message produced.
func (c *Client) TransactionResult(ctx context.Context, msgID string) (found bool, success bool, err error) {
	var q struct {
		Transactions []struct {
			Aborted bool `graphql:"aborted"`
			Action  struct {
				Success bool `graphql:"success"`
			} `graphql:"action"`
		} `graphql:"transactions(filter: {in_msg: {eq: $msg}}, limit: 1)"`
	}
	vars := map[string]any{"msg": msgID}

	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return false, false, &RpcError{Op: "transaction result", Err: err}
	}
	if len(q.Transactions) == 0 {
		return false, false, nil
	}
	tx := q.Transactions[0]
	return true, tx.Action.Success && !tx.Aborted, nil
}

// CountBlockSignatures aggregates the number of blocks signed by any of
// the given node keys in the (now-interval, now] window.
func (c *Client) CountBlockSignatures(ctx context.Context, keys []string, from int64, to int64) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	cur := keys[len(keys)-1]
	prev := cur
	if len(keys) > 1 {
		prev = keys[len(keys)-2]
	}

	query := `query ($gt: Float, $le: Float, $cur: String, $prev: String) {
		aggregateBlockSignatures(filter: {gen_utime: {gt: $gt, le: $le}, signatures: {any: {node_id: {eq: $cur}, OR: {node_id: {eq: $prev}}}}})
	}`
	var resp struct {
		AggregateBlockSignatures []string `json:"aggregateBlockSignatures"`
	}
	vars := map[string]any{
		"gt":   float64(from),
		"le":   float64(to),
		"cur":  cur,
		"prev": prev,
	}
	if err := c.gql.Exec(ctx, query, &resp, vars); err != nil {
		return 0, &RpcError{Op: "block signatures", Err: err}
	}
	if len(resp.AggregateBlockSignatures) == 0 {
		return 0, nil
	}
	return strconv.ParseInt(resp.AggregateBlockSignatures[0], 10, 64)
}
