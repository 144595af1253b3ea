package main

import "github.com/spf13/cobra"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "fanout",
		Short: "Real-time notification fan-out service",
		Long: `fanout keeps websocket sessions grouped into personal and feed rooms and
delivers new post, new follower and post like notifications to them.

Events are relayed across processes through Redis pub/sub when REDIS_ENABLED
is set; without a usable broker the service keeps serving sessions in
degraded mode.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newPublishCommand())
	return root
}
