package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ton-staking-manager/lib/logger"
	"ton-staking-manager/modules/aggregate"
	"ton-staking-manager/modules/api"
	"ton-staking-manager/modules/chain"
	"ton-staking-manager/modules/db"
	stakingDb "ton-staking-manager/modules/db/staking"
	"ton-staking-manager/modules/scheduler"
	"ton-staking-manager/modules/staking"
	"ton-staking-manager/modules/tools"
)

func main() {
	args, err := ParseArgs()
	if err != nil {
		fmt.Println("Error parsing arguments:", err)
		os.Exit(1)
	}

	dbConf := db.NewDbConfig(args.dataDir)
	chainConf := chain.NewChainConfig(args.dataDir)
	toolsConf := tools.NewToolsConfig(args.dataDir)
	stakingConf := staking.NewStakingConfig(args.dataDir)
	apiConf := api.NewApiConfig(args.dataDir)
	schedConf := scheduler.NewSchedulerConfig(args.dataDir)

	dbImpl := db.New(dbConf)
	stDb := stakingDb.New(dbImpl, dbConf)
	elections := stakingDb.NewElections(stDb)
	settings := stakingDb.NewSettings(stDb)

	client := chain.NewClient(chainConf, logger.PrefixedLogger{Prefix: "chain"})
	gateway := chain.NewGateway(client, logger.PrefixedLogger{Prefix: "gateway"})
	configReader := chain.NewConfigReader(client)
	elector := chain.NewElector(gateway, client, configReader)

	run := tools.NewRunner(toolsConf, logger.PrefixedLogger{Prefix: "tools"})
	console := tools.NewConsole(toolsConf, run)
	fift := tools.NewFift(toolsConf, run)
	tonos := tools.NewTonos(toolsConf, run, func() (string, string) {
		c := stakingConf.Get()
		return c.WalletAddr, c.WalletKeysFile
	})

	transactor := staking.NewTransactor(tonos, gateway, logger.PrefixedLogger{Prefix: "transactor"})
	manager := staking.New(
		stakingConf,
		elections,
		settings,
		client,
		configReader,
		elector,
		console,
		fift,
		tonos,
		transactor,
		logger.PrefixedLogger{Prefix: "staking"},
	)

	apiServer := api.New(apiConf, manager, logger.PrefixedLogger{Prefix: "api"})
	sched := scheduler.New(schedConf, manager, logger.PrefixedLogger{Prefix: "scheduler"})

	plugins := []aggregate.Plugin{
		dbConf,
		chainConf,
		toolsConf,
		stakingConf,
		apiConf,
		schedConf,

		dbImpl,
		stDb,
		elections,
		settings,

		client,
		manager,
		apiServer,
		sched,
	}

	a := aggregate.New(
		plugins,
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		a.Shutdown()
	}()

	if err := a.Run(); err != nil {
		fmt.Println("error is", err)
		os.Exit(1)
	}
}
