package chain

import "ton-staking-manager/modules/config"

type chainConfig struct {
	// GraphQL endpoint serving the accounts/blocks/messages/transactions
	// collections and the postRequests mutation.
	Endpoint string `validate:"required,url"`
	// Websocket endpoint for message subscriptions.
	SubscriptionEndpoint string `validate:"required"`
	// Seconds to wait for a posted message's transaction to appear
	// before an attempt counts as failed.
	ConfirmTimeoutSec int `validate:"gt=0"`
}

type ChainConfig = *config.Config[chainConfig]

func NewChainConfig(dataDir ...string) ChainConfig {
	var dataDirPtr *string
	if len(dataDir) > 0 {
		dataDirPtr = &dataDir[0]
	}

	return config.New(chainConfig{
		Endpoint:             "https://mainnet.evercloud.dev/graphql",
		SubscriptionEndpoint: "wss://mainnet.evercloud.dev/graphql",
		ConfirmTimeoutSec:    60,
	}, dataDirPtr)
}
