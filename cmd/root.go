package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func newRoot() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "rangeprobe verify --url [ADDRESS] --resource [PATH]",
		Short: "Check that a media server returns the same bytes in static and live streaming mode",
		// errors are reported by main
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newVerifyCmd(os.Stdout))

	return rootCmd
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return newRoot().ExecuteContext(ctx)
}
