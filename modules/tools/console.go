package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// KeyPair is the result of a toolchain key generation: the key hash the
// console addresses the key by, and the raw secret captured so the key
// can be re-imported after a node reset.
type KeyPair struct {
	Key    string
	Secret string
}

// Console wraps validator-engine-console: key management, signing and
// validator registration against the local node.
type Console struct {
	conf ToolsConfig
	run  *runner
}

func NewConsole(conf ToolsConfig, run *runner) *Console {
	return &Console{conf: conf, run: run}
}

func (c *Console) exec(ctx context.Context, commands ...string) (string, error) {
	conf := c.conf.Get()
	args := []string{
		"-a", conf.ConsoleAddr,
		"-k", conf.ConsoleClientKey,
		"-p", conf.ConsoleServerKey,
	}
	for _, cmd := range commands {
		args = append(args, "-c", cmd)
	}
	args = append(args, "-c", "quit")

	stdout, _, err := c.run.run(ctx, conf.ConsoleBin, args...)
	return stdout, err
}

var keyPattern = regexp.MustCompile(`^([0-9A-Fa-f]+)`)

// GenerateKeyPair creates a fresh key with generate-random-id, captures
// its secret and imports it into the console's keyring.
func (c *Console) GenerateKeyPair(ctx context.Context) (KeyPair, error) {
	tmp, err := os.CreateTemp("", "keys")
	if err != nil {
		return KeyPair{}, err
	}
	defer os.Remove(tmp.Name())
	tmp.Close()

	stdout, _, err := c.run.run(ctx, c.conf.Get().GenerateRandomIdBin, "-m", "keys", "-n", tmp.Name())
	if err != nil {
		return KeyPair{}, err
	}

	m := keyPattern.FindStringSubmatch(stdout)
	if m == nil {
		return KeyPair{}, fmt.Errorf("%w: unexpected generate-random-id output", ErrKeyGen)
	}
	key := m[1]

	raw, err := os.ReadFile(tmp.Name())
	if err != nil {
		return KeyPair{}, err
	}

	if _, err := c.exec(ctx, "importf "+tmp.Name()); err != nil {
		return KeyPair{}, err
	}

	return KeyPair{
		Key:    key,
		Secret: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// ImportSecret restores a previously captured key secret into the
// console's keyring.
func (c *Console) ImportSecret(ctx context.Context, secret string) error {
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return fmt.Errorf("malformed key secret: %w", err)
	}

	tmp, err := os.CreateTemp("", "keys")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	_, err = c.exec(ctx, "importf "+tmp.Name())
	return err
}

var pubKeyPattern = regexp.MustCompile(`got public key: (\S+)`)

func (c *Console) ExportPublicKey(ctx context.Context, key string) (string, error) {
	stdout, err := c.exec(ctx, "exportpub "+key)
	if err != nil {
		return "", err
	}

	m := pubKeyPattern.FindStringSubmatch(stdout)
	if m == nil {
		return "", &ToolchainError{Tool: "exportpub", Err: fmt.Errorf("no public key in output")}
	}
	return m[1], nil
}

var signaturePattern = regexp.MustCompile(`got signature (\S+)`)

func (c *Console) Sign(ctx context.Context, key string, request string) (string, error) {
	stdout, err := c.exec(ctx, fmt.Sprintf("sign %s %s", key, request))
	if err != nil {
		return "", err
	}

	m := signaturePattern.FindStringSubmatch(stdout)
	if m == nil {
		return "", &ToolchainError{Tool: "sign", Err: fmt.Errorf("no signature in output")}
	}
	return m[1], nil
}

// RegisterValidator registers the permanent key, temporary key, ADNL
// binding and validator address for the round in one console batch. The
// batch is not atomic on the node side: a partial failure must be
// retried in full by the caller.
func (c *Console) RegisterValidator(ctx context.Context, electionStart, electionStop uint32, key, adnlKey string) error {
	if electionStart >= electionStop {
		return fmt.Errorf("invalid election window [%d, %d)", electionStart, electionStop)
	}
	if key == "" || adnlKey == "" {
		return fmt.Errorf("validator and adnl keys are required")
	}

	_, err := c.exec(ctx,
		fmt.Sprintf("addpermkey %s %d %d", key, electionStart, electionStop),
		fmt.Sprintf("addtempkey %s %s %d", key, key, electionStop),
		fmt.Sprintf("addadnl %s 0", adnlKey),
		fmt.Sprintf("addvalidatoraddr %s %s %d", key, adnlKey, electionStop),
	)
	return err
}

var (
	unixtimePattern   = regexp.MustCompile(`unixtime\s+(\d+)`)
	masterTimePattern = regexp.MustCompile(`masterchainblocktime\s+(\d+)`)
)

// TimeDiff returns masterchainblocktime - unixtime from the node's
// stats: non-positive when the node lags behind the chain.
func (c *Console) TimeDiff(ctx context.Context) (int64, error) {
	stdout, err := c.exec(ctx, "getstats")
	if err != nil {
		return 0, err
	}

	ut := unixtimePattern.FindStringSubmatch(stdout)
	mt := masterTimePattern.FindStringSubmatch(stdout)
	if ut == nil || mt == nil {
		return 0, &ToolchainError{Tool: "getstats", Err: fmt.Errorf(`failed to get "masterchainblocktime" and/or "unixtime"`)}
	}

	unixtime, err := strconv.ParseInt(ut[1], 10, 64)
	if err != nil {
		return 0, err
	}
	masterTime, err := strconv.ParseInt(mt[1], 10, 64)
	if err != nil {
		return 0, err
	}
	return masterTime - unixtime, nil
}
