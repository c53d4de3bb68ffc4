package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"summitclips-server/internal/logging"
	"summitclips-server/internal/queue"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued analysis jobs from Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !ctx.cfg.Queue.Enabled {
				return errors.New("worker requires QUEUE_ENABLED=true")
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := ctx.buildServices(runCtx, serviceOptions{archive: true, queue: true})
			if err != nil {
				return err
			}
			defer svc.Close()

			worker := queue.NewWorker(svc.jobs, svc.pipeline, logging.WithComponent(ctx.logger, "worker"))
			return worker.Run(runCtx)
		},
	}
}
