package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nemanja-m/scatter/examples/bench"
)

var (
	benchRepeat     int
	benchActivity   int
	benchIterations int
	benchVariants   []string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time the execution modes on a CPU-bound word task",
	Long: `bench counts the valid four letter words of a generated list after
reversing each word --activity times, once per variant: isolated and shared
mode, each with a chunk divider and element-wise, plus a plain call.`,
	Example: `  scatter bench --activity 100 --iterations 5 --variant threads_with_divider --variant undecorated`,
	Args:    cobra.NoArgs,
	RunE:    runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().IntVarP(&benchRepeat, "repeat", "r", 1, "number of copies of the word list")
	benchCmd.Flags().IntVarP(&benchActivity, "activity", "s", 1000, "times every word is reversed")
	benchCmd.Flags().IntVarP(&benchIterations, "iterations", "n", 3, "timed runs per variant")
	benchCmd.Flags().StringArrayVar(&benchVariants, "variant", nil, "run only this variant, may be repeated")
}

func runBench(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	results, err := bench.Run(a.engine, bench.RunConfig{
		Repeat:     benchRepeat,
		Activity:   benchActivity,
		Iterations: benchIterations,
		Workers:    a.cfg.Engine.Workers,
		Variants:   benchVariants,
	}, a.logger)
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Fprintln(cmd.OutOrStdout(), r.String())
	}
	return a.flushMetrics()
}
