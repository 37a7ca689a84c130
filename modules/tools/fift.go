package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Fift runs the election fift scripts. From the caller's perspective
// each call is a deterministic, side-effect-free transform producing
// either a hex request to sign or a base64 message body.
type Fift struct {
	conf ToolsConfig
	run  *runner
}

func NewFift(conf ToolsConfig, run *runner) *Fift {
	return &Fift{conf: conf, run: run}
}

func (f *Fift) exec(ctx context.Context, script string, args ...string) (string, error) {
	conf := f.conf.Get()
	cmdArgs := append([]string{"-I", conf.FiftIncludes, "-s", script}, args...)
	stdout, _, err := f.run.run(ctx, conf.FiftBin, cmdArgs...)
	return stdout, err
}

var electReqPattern = regexp.MustCompile(`(?m)^([0-9A-Fa-f]+)$`)

// BuildElectionRequest produces the hex blob the validator key signs.
func (f *Fift) BuildElectionRequest(ctx context.Context, walletAddr string, electionStart uint32, maxFactor int, adnlKey string) (string, error) {
	if walletAddr == "" || adnlKey == "" {
		return "", fmt.Errorf("wallet address and adnl key are required")
	}

	tmp, err := os.CreateTemp("", "validator-to-sign")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	tmp.Close()

	stdout, err := f.exec(ctx, "validator-elect-req.fif",
		walletAddr,
		strconv.FormatUint(uint64(electionStart), 10),
		strconv.Itoa(maxFactor),
		adnlKey,
		tmp.Name(),
	)
	if err != nil {
		return "", err
	}

	m := electReqPattern.FindStringSubmatch(stdout)
	if m == nil {
		return "", &ToolchainError{Tool: "validator-elect-req.fif", Err: fmt.Errorf("no request in output")}
	}
	return m[1], nil
}

// BuildSignedElectionPayload produces the base64 message body carrying
// the signed election bid.
func (f *Fift) BuildSignedElectionPayload(ctx context.Context, walletAddr string, electionStart uint32, maxFactor int, adnlKey, publicKey, signature string) (string, error) {
	tmp, err := os.CreateTemp("", "validator-query")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	tmp.Close()

	_, err = f.exec(ctx, "validator-elect-signed.fif",
		walletAddr,
		strconv.FormatUint(uint64(electionStart), 10),
		strconv.Itoa(maxFactor),
		adnlKey,
		publicKey,
		signature,
		tmp.Name(),
	)
	if err != nil {
		return "", err
	}

	return readBase64(tmp.Name())
}

// BuildRecoverQuery produces the base64 message body requesting the
// return of a recoverable stake.
func (f *Fift) BuildRecoverQuery(ctx context.Context) (string, error) {
	tmp, err := os.CreateTemp("", "recover-query")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	tmp.Close()

	if _, err := f.exec(ctx, "recover-stake.fif", tmp.Name()); err != nil {
		return "", err
	}

	return readBase64(tmp.Name())
}

func readBase64(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty message body %s", path)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
