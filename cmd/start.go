package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/db"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/metrics"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/sequence"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/txrelayer"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/txsubmit"
	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/wallet"
)

func StartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Relay pending ICS-20 transfer requests from the database",
		Run:   StartAction,
	}
}

func StartAction(c *cobra.Command, _ []string) {
	cfg, parentLogger, err := loadConfig(c)
	if err != nil {
		panic(err)
	}
	logger := parentLogger.Sugar()

	if err := db.Init(cfg.Database); err != nil {
		panic(err)
	}
	repository, err := db.NewTransferRepository()
	if err != nil {
		panic(err)
	}

	sequenceDB, err := db.NewSequenceStore(&cfg)
	if err != nil {
		panic(err)
	}
	logger.Infof("Account sequences stored in %s", cfg.SequenceStore)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Chain.RPCTimeout)
	client, err := txsubmit.NewClient(ctx, cfg.Chain, logger)
	cancel()
	if err != nil {
		panic(err)
	}

	signer, err := wallet.NewSignerFromConfig(cfg.Key, cfg.Chain.AccountPrefix)
	if err != nil {
		panic(err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	var metricsServer *metrics.Server
	if cfg.Metrics.ListenAddr != "" {
		metricsServer = metrics.NewServer(cfg.Metrics.ListenAddr, registry, logger)
		metricsServer.Start()
	}

	allocator := sequence.NewAllocator(client, sequenceDB, logger)
	txRelayer, err := txrelayer.NewTransferRelayer(logger, &cfg, client, signer, allocator, repository, m)
	if err != nil {
		panic(err)
	}
	txRelayer.Start()

	addInterruptHandler(func() {
		logger.Infof("Stopping %s Tx-relayer...", txRelayer.ChainName())
		txRelayer.Stop()
		txRelayer.WaitForShutdown()
		logger.Infof("%s Tx-relayer shutdown", txRelayer.ChainName())

		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Stop(ctx); err != nil {
				logger.Errorf("Failed to stop metrics server: %v", err)
			}
		}
		if err := sequenceDB.Close(); err != nil {
			logger.Errorf("Failed to close sequence db: %v", err)
		}
		if err := client.Close(); err != nil {
			logger.Errorf("Failed to close chain client: %v", err)
		}
	})
	<-interruptHandlersDone
	parentLogger.Info("Shutdown complete")
}
