package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/born-ml/deepnet/network"
)

// networkFlags are shared by the commands that load a network document.
type networkFlags struct {
	seed    int64
	workers int
}

func (f *networkFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.seed, "seed", 1, "seed for parameter initialization (0 = random)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "channels evaluated concurrently (0 = CPU count, 1 = sequential)")
}

func (f *networkFlags) config() network.Config {
	cfg := network.DefaultConfig()
	cfg.Seed = f.seed
	if f.workers > 0 {
		cfg.Parallel = network.ParallelConfig{Enabled: f.workers > 1, NumWorkers: f.workers}
	}
	return cfg
}

func (f *networkFlags) load(path string) (*network.Network, error) {
	net, err := network.Load(path, f.config())
	if err != nil {
		return nil, errors.WithMessagef(err, "load %s", path)
	}
	return net, nil
}

func validateCmd() *cobra.Command {
	var flags networkFlags
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a saved network for structural problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			net, err := flags.load(args[0])
			if err != nil {
				return err
			}
			errs := net.Validate()
			for _, e := range errs {
				cmd.PrintErrln(e)
			}
			if len(errs) > 0 {
				return errors.Errorf("%d problems found", len(errs))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid, %d inputs, %d layers, %d outputs\n",
				args[0], len(net.Inputs()), len(net.Layers()), net.OutputSize())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func dotCmd() *cobra.Command {
	var (
		flags  networkFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "dot FILE",
		Short: "Render a saved network as a Graphviz digraph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			net, err := flags.load(args[0])
			if err != nil {
				return err
			}
			dot, err := net.ToDot()
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), dot)
				return nil
			}
			return errors.Wrap(os.WriteFile(output, []byte(dot), 0o600), "write dot")
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func gradcheckCmd() *cobra.Command {
	var (
		flags     networkFlags
		epsilon   float64
		tolerance float64
	)
	cmd := &cobra.Command{
		Use:   "gradcheck FILE",
		Short: "Compare analytic gradients with finite differences on a random sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			net, err := flags.load(args[0])
			if err != nil {
				return err
			}
			if errs := net.Validate(); len(errs) > 0 {
				return network.ValidationErrors(errs)
			}

			rng := rand.New(rand.NewSource(flags.seed))
			inputs := make([]float64, net.InputSize())
			for i := range inputs {
				inputs[i] = rng.Float64()*2 - 1
			}
			low, high := net.OutputRange()
			expected := make([]float64, net.OutputSize())
			for i := range expected {
				expected[i] = low + rng.Float64()*(high-low)
			}

			if err := net.SetInputs(inputs); err != nil {
				return err
			}
			if _, err := net.FeedForward(); err != nil {
				return err
			}
			if err := net.BackPropagate(expected); err != nil {
				return err
			}
			if err := net.GradientCheck(epsilon, tolerance); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "gradients match (epsilon %g, tolerance %g)\n", epsilon, tolerance)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Float64Var(&epsilon, "epsilon", 1e-6, "finite difference step")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 1e-4, "allowed relative difference")
	return cmd
}
