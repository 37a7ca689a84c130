package tools

import "ton-staking-manager/modules/config"

type toolsConfig struct {
	// validator-engine-console connection
	ConsoleBin       string `validate:"required"`
	ConsoleAddr      string `validate:"required,hostname_port"`
	ConsoleClientKey string `validate:"required"`
	ConsoleServerKey string `validate:"required"`

	// key generator used alongside the console
	GenerateRandomIdBin string `validate:"required"`

	// fift interpreter and the stdlib/smartcont include path
	FiftBin      string `validate:"required"`
	FiftIncludes string `validate:"required"`

	// tonos-cli for offline message encoding and event body decoding
	TonosBin      string `validate:"required"`
	WalletABIFile string `validate:"required"`
	DePoolABIFile string

	// wall-clock limit for any single tool invocation, seconds
	ExecTimeoutSec int `validate:"gt=0"`
}

type ToolsConfig = *config.Config[toolsConfig]

func NewToolsConfig(dataDir ...string) ToolsConfig {
	var dataDirPtr *string
	if len(dataDir) > 0 {
		dataDirPtr = &dataDir[0]
	}

	return config.New(toolsConfig{
		ConsoleBin:          "validator-engine-console",
		ConsoleAddr:         "127.0.0.1:3030",
		ConsoleClientKey:    "certs/client",
		ConsoleServerKey:    "certs/server.pub",
		GenerateRandomIdBin: "generate-random-id",
		FiftBin:             "fift",
		FiftIncludes:        "ton/crypto/fift/lib/:ton/crypto/smartcont/",
		TonosBin:            "tonos-cli",
		WalletABIFile:       "contracts/SafeMultisigWallet.abi.json",
		DePoolABIFile:       "contracts/DePool.abi.json",
		ExecTimeoutSec:      60,
	}, dataDirPtr)
}
