package db

import "ton-staking-manager/modules/config"

type dbConfig struct {
	DbURI  string `validate:"required"`
	DbName string `validate:"required"`
}

type DbConfig = *config.Config[dbConfig]

func NewDbConfig(dataDir ...string) DbConfig {
	var dataDirPtr *string
	if len(dataDir) > 0 {
		dataDirPtr = &dataDir[0]
	}

	return config.New(dbConfig{
		DbURI:  "mongodb://localhost:27017",
		DbName: "staking-manager",
	}, dataDirPtr)
}
