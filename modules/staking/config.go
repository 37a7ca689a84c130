package staking

import (
	"time"

	"ton-staking-manager/lib/utils"
	"ton-staking-manager/modules/config"
)

type stakingConfig struct {
	// Multisig wallet owning the validator identity: address and the
	// keypair file tonos-cli signs with.
	WalletAddr     string `validate:"required"`
	WalletKeysFile string `validate:"required"`

	// wallet | depool
	FundingType string `validate:"oneof=wallet depool"`

	// Stake in tokens used when no operator override is stored.
	DefaultStake int64 `validate:"gt=0"`

	// DePool contract address, required for depool funding.
	DePoolAddr string `validate:"required_if=FundingType depool"`

	// How long to wait for a DePool event, seconds. Clamped to
	// [60, 600] on read.
	EventTimeoutSec int

	MaxFactor    int `validate:"gt=0"`
	SendAttempts int `validate:"gt=0"`
}

type StakingConfig = *config.Config[stakingConfig]

func NewStakingConfig(dataDir ...string) StakingConfig {
	var dataDirPtr *string
	if len(dataDir) > 0 {
		dataDirPtr = &dataDir[0]
	}

	return config.New(stakingConfig{
		WalletAddr:      "0:0000000000000000000000000000000000000000000000000000000000000000",
		WalletKeysFile:  "certs/msig.keys.json",
		FundingType:     "wallet",
		DefaultStake:    10001,
		EventTimeoutSec: 60,
		MaxFactor:       3,
		SendAttempts:    10,
	}, dataDirPtr)
}

const (
	minEventTimeout = 60 * time.Second
	maxEventTimeout = 600 * time.Second
)

func eventTimeout(conf stakingConfig) time.Duration {
	t := time.Duration(conf.EventTimeoutSec) * time.Second
	return utils.Clamp(t, minEventTimeout, maxEventTimeout)
}
