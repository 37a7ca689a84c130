package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"ton-staking-manager/modules/chain"
)

// SubmitTransactionParams is the input of the multisig wallet's
// submitTransaction method.
type SubmitTransactionParams struct {
	Dest       string `json:"dest"`
	Value      int64  `json:"value"`
	Bounce     bool   `json:"bounce"`
	AllBalance bool   `json:"allBalance"`
	Payload    string `json:"payload"`
}

// DecodedEvent is an ABI-decoded contract event body.
type DecodedEvent struct {
	Name  string         `json:"Name"`
	Value map[string]any `json:"Value"`
}

// Tonos wraps tonos-cli for the operations the node SDK performed in
// spirit: encoding signed wallet messages offline and decoding contract
// event bodies.
type Tonos struct {
	conf ToolsConfig
	run  *runner

	// Resolves the wallet address and keypair file lazily, after the
	// configuration plugins loaded.
	wallet WalletIdentity
}

// WalletIdentity supplies the multisig wallet address and the path of
// the keypair file tonos-cli signs with.
type WalletIdentity func() (addr string, keysFile string)

func NewTonos(conf ToolsConfig, run *runner, wallet WalletIdentity) *Tonos {
	return &Tonos{conf: conf, run: run, wallet: wallet}
}

var messageIdPattern = regexp.MustCompile(`(?i)message.?id:?\s*([0-9A-Fa-f]{64})`)

// EncodeSubmitTransaction builds and signs the external message calling
// submitTransaction on the wallet, without touching the network.
func (t *Tonos) EncodeSubmitTransaction(ctx context.Context, p SubmitTransactionParams) (chain.EncodedMessage, error) {
	input, err := json.Marshal(p)
	if err != nil {
		return chain.EncodedMessage{}, err
	}

	tmp, err := os.CreateTemp("", "msg-body")
	if err != nil {
		return chain.EncodedMessage{}, err
	}
	defer os.Remove(tmp.Name())
	tmp.Close()

	conf := t.conf.Get()
	walletAddr, keysFile := t.wallet()
	stdout, _, err := t.run.run(ctx, conf.TonosBin,
		"message", walletAddr, "submitTransaction", string(input),
		"--abi", conf.WalletABIFile,
		"--sign", keysFile,
		"--raw", "--output", tmp.Name(),
	)
	if err != nil {
		return chain.EncodedMessage{}, err
	}

	m := messageIdPattern.FindStringSubmatch(stdout)
	if m == nil {
		return chain.EncodedMessage{}, &ToolchainError{Tool: "tonos-cli message", Err: fmt.Errorf("no message id in output")}
	}

	raw, err := os.ReadFile(tmp.Name())
	if err != nil {
		return chain.EncodedMessage{}, err
	}

	return chain.EncodedMessage{
		Id:   strings.ToLower(m[1]),
		Body: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

var bodyPattern = regexp.MustCompile(`(?i)message body:?\s*(\S+)`)

// EncodeTicktockBody encodes the internal message body for the DePool's
// ticktock method, to be carried as a submitTransaction payload.
func (t *Tonos) EncodeTicktockBody(ctx context.Context) (string, error) {
	conf := t.conf.Get()
	stdout, _, err := t.run.run(ctx, conf.TonosBin,
		"body", "ticktock", "{}",
		"--abi", conf.DePoolABIFile,
	)
	if err != nil {
		return "", err
	}

	m := bodyPattern.FindStringSubmatch(stdout)
	if m == nil {
		return "", &ToolchainError{Tool: "tonos-cli body", Err: fmt.Errorf("no body in output")}
	}
	return m[1], nil
}

// DecodeEventBody decodes a DePool event body. Returns ok=false for
// bodies that don't decode against the DePool ABI (foreign messages are
// expected on the wire and are not an error).
func (t *Tonos) DecodeEventBody(ctx context.Context, body string) (DecodedEvent, bool, error) {
	conf := t.conf.Get()
	stdout, _, err := t.run.run(ctx, conf.TonosBin,
		"decode", "body", body,
		"--abi", conf.DePoolABIFile,
	)
	if err != nil {
		// tonos-cli exits nonzero for undecodable bodies
		var toolErr *ToolchainError
		if errors.As(err, &toolErr) {
			return DecodedEvent{}, false, nil
		}
		return DecodedEvent{}, false, err
	}

	start := strings.Index(stdout, "{")
	end := strings.LastIndex(stdout, "}")
	if start == -1 || end <= start {
		return DecodedEvent{}, false, nil
	}

	var event DecodedEvent
	if err := json.Unmarshal([]byte(stdout[start:end+1]), &event); err != nil {
		return DecodedEvent{}, false, nil
	}
	if event.Name == "" {
		return DecodedEvent{}, false, nil
	}
	return event, true, nil
}
