package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"summitclips-server/internal/logging"
	"summitclips-server/internal/server"
)

func newServerCommand(ctx *commandContext) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := ctx.buildServices(runCtx, serviceOptions{archive: true, queue: true, queries: true})
			if err != nil {
				return err
			}
			defer svc.Close()

			opts := []server.Option{
				server.WithToolChecker(svc.media),
				server.WithSessions(svc.sessions),
			}
			if svc.archive != nil {
				opts = append(opts, server.WithArchive(svc.archive))
			}
			if svc.jobs != nil {
				opts = append(opts, server.WithJobQueue(svc.jobs))
			}
			if textModel := svc.textModel(); textModel != nil {
				opts = append(opts, server.WithTextModel(textModel))
			}

			srv := server.New(cfg, svc.pipeline, logging.WithComponent(ctx.logger, "server"), opts...)
			if err := srv.Run(runCtx, cfg.Server.Addr()); err != nil {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Listen host")
	cmd.Flags().IntVar(&port, "port", 8000, "Listen port")
	return cmd
}
