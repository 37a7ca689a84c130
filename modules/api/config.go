package api

import "ton-staking-manager/modules/config"

type apiConfig struct {
	ListenAddr string `validate:"required"`
	// Bearer token required on every request; empty disables auth.
	AuthToken      string
	AllowedOrigins []string
}

type ApiConfig = *config.Config[apiConfig]

func NewApiConfig(dataDir ...string) ApiConfig {
	var dataDirPtr *string
	if len(dataDir) > 0 {
		dataDirPtr = &dataDir[0]
	}

	return config.New(apiConfig{
		ListenAddr:     ":3000",
		AllowedOrigins: []string{"*"},
	}, dataDirPtr)
}
