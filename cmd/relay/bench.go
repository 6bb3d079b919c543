package main

import (
	"github.com/fogfactory/relay/benchmark"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newBenchCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Profile message throughput and write a pprof file in the current directory",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			benchmark.Profile(v.GetInt("workers"), v.GetInt("jobs"), v.GetInt("messages"))
		},
	}
	flags := cmd.Flags()
	flags.IntP("workers", "w", 4, "Pool size")
	flags.Int("jobs", 100, "Number of jobs")
	flags.Int("messages", 1000, "Messages sent by each job")
	return cmd
}
