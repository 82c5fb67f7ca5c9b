package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/studio/internal/api"
	"github.com/zulandar/studio/internal/logging"
	"github.com/zulandar/studio/internal/meta"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  "Serves the remote-call API and the Studio Page watcher endpoints. Resyncs DocType definitions on schema.sync_cron if set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Studio config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, reg, err := registryFromConfig(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	logger, err := logging.New(cfg.Log.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Schema.SyncCron != "" {
		sched, err := meta.NewScheduler(reg, cfg.Schema.Dir, cfg.Schema.SyncCron, logger.Named("schema"))
		if err != nil {
			return err
		}
		sched.Start(ctx)
		logger.Infow("schema resync scheduled", "dir", cfg.Schema.Dir, "cron", cfg.Schema.SyncCron)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return api.Start(ctx, api.StartOpts{
		DB:       gormDB,
		Registry: reg,
		Port:     port,
		Logger:   logger.Named("api"),
		Out:      cmd.OutOrStdout(),
	})
}
