package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/ntdash/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ntdash: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options
	root := &cobra.Command{
		Use:           "ntdash",
		Short:         "Network tables client for the native bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "override config path (optional)")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error (optional)")

	root.AddCommand(newWatchCmd(&opts), newPublishCmd(&opts), newHistoryCmd(&opts))
	return root
}

func newWatchCmd(opts *app.Options) *cobra.Command {
	var pollSeconds float64
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Subscribe to the configured patterns and keep their history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pollSeconds < 0 {
				return fmt.Errorf("--poll must not be negative")
			}
			o := *opts
			o.PollEvery = time.Duration(pollSeconds * float64(time.Second))
			return app.Run(cmd.Context(), o)
		},
	}
	cmd.Flags().Float64Var(&pollSeconds, "poll", 0, "refresh interval in seconds (optional, defaults to poll_seconds)")
	return cmd
}

func newPublishCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <topic> <type> <value>",
		Short: "Declare a topic and publish one value",
		Long: "Declare a topic and publish one value.\n\n" +
			"Types: Bool, Double, Float, Int, String, Raw, BoolArray, DoubleArray,\n" +
			"FloatArray, IntArray, StringArray. Strings may be given bare; every\n" +
			"other value is read as JSON, e.g. '[1.5, 2]' for a DoubleArray.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Publish(cmd.Context(), *opts, args[0], args[1], args[2])
		},
	}
}

func newHistoryCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "history <pattern>",
		Short: "Print the archived history of a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.History(cmd.Context(), *opts, args[0], cmd.OutOrStdout())
		},
	}
}
