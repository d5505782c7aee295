// Command ipdsweep computes expected payoffs of a repeated Prisoner's
// Dilemma over a grid of continuation and mistake probabilities.
//
// Each completed grid point is printed as one tab-separated line:
//
//	continuation  mistake  payoff_player_1  payoff_player_2
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/timpalpant/go-ipd"
	"github.com/timpalpant/go-ipd/strategy"
	"github.com/timpalpant/go-ipd/sweep"
)

type overrides struct {
	storePath string
	backend   string
	workers   int
	seed      int64
}

func main() {
	defer glog.Flush()
	if err := newRootCommand().Execute(); err != nil {
		glog.Error(err)
		glog.Flush()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ipdsweep",
		Short:         "Expected payoffs of the noisy repeated Prisoner's Dilemma",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// glog reads its flags from flag.CommandLine.
			return flag.CommandLine.Parse(nil)
		},
	}
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	root.AddCommand(newRunCommand(), newDumpCommand(), newStrategiesCommand())
	return root
}

func newRunCommand() *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "run [config.yaml]",
		Short: "Run the sweep described by a YAML config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			c, err := sweep.LoadConfig(f)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("store") {
				c.Store.Path = o.storePath
			}
			if flags.Changed("backend") {
				c.Store.Backend = o.backend
			}
			if flags.Changed("workers") {
				c.Workers = o.workers
			}
			if flags.Changed("seed") {
				c.Seed = o.seed
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, c, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&o.storePath, "store", "", "Directory of the result store (overrides store.path)")
	cmd.Flags().StringVar(&o.backend, "backend", "leveldb", "Result store backend: leveldb or rocksdb")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "Number of parallel workers (0 = GOMAXPROCS)")
	cmd.Flags().Int64Var(&o.seed, "seed", 0, "Monte Carlo master seed")
	return cmd
}

func run(ctx context.Context, c sweep.Config, w io.Writer) error {
	store, err := sweep.OpenStore(c.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := sweep.NewRunner(c, store)
	if err != nil {
		return err
	}

	return r.Run(ctx, func(job ipd.Job, result ipd.Result) error {
		_, err := fmt.Fprintln(w, result.Line(job.Game.Continuation, job.Game.Mistake))
		return err
	})
}

func newDumpCommand() *cobra.Command {
	var sc sweep.StoreConfig
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "List the results in a store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sweep.OpenStore(sc)
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			return store.ForEach(func(key []byte, r ipd.Result) error {
				_, err := fmt.Fprintf(w, "%s\t%v\t%v\n", key, r.Payoff[0], r.Payoff[1])
				return err
			})
		},
	}

	cmd.Flags().StringVar(&sc.Path, "store", "", "Directory of the result store")
	cmd.Flags().StringVar(&sc.Backend, "backend", "leveldb", "Result store backend: leveldb or rocksdb")
	cmd.MarkFlagRequired("store")
	return cmd
}

func newStrategiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the available strategy names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range strategy.Names() {
				s, err := strategy.ByName(name)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", name, s)
			}

			return nil
		},
	}
}
