package scheduler

import "ton-staking-manager/modules/config"

type schedulerConfig struct {
	// Cron specs, robfig/cron syntax.
	SendStakeSpec    string `validate:"required"`
	RecoverStakeSpec string `validate:"required"`

	// A cycle runs only while the node's masterchain lag stays within
	// this many seconds.
	AcceptableTimeDiffSec int64 `validate:"gte=0"`
}

type SchedulerConfig = *config.Config[schedulerConfig]

func NewSchedulerConfig(dataDir ...string) SchedulerConfig {
	var dataDirPtr *string
	if len(dataDir) > 0 {
		dataDirPtr = &dataDir[0]
	}

	return config.New(schedulerConfig{
		SendStakeSpec:         "@every 10m",
		RecoverStakeSpec:      "@every 1h",
		AcceptableTimeDiffSec: 20,
	}, dataDirPtr)
}
