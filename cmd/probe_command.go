package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"summitclips-server/internal/ffmpeg"
	"summitclips-server/internal/logging"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <video>",
		Short: "Print ffprobe stream and format metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ffmpeg.NewClient(logging.WithComponent(ctx.logger, "ffmpeg"))
			meta, err := client.Metadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(meta)
		},
	}
}
