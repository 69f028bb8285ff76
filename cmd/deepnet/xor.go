package main

import (
	"fmt"
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/born-ml/deepnet/network"
	"github.com/born-ml/deepnet/nn"
	"github.com/born-ml/deepnet/tensor"
	"github.com/born-ml/deepnet/train"
)

func xorCmd() *cobra.Command {
	var (
		flags  networkFlags
		hidden  int
		entropy bool
		cfg     = train.DefaultConfig()
		save    string
	)
	cmd := &cobra.Command{
		Use:   "xor",
		Short: "Train the XOR demo network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output := nn.Sigmoid
			if entropy {
				output = nn.SigmoidCrossEntropy
			}
			net := network.New(flags.config())
			net.AddInput("x", tensor.Shape{2})
			net.AddLayer(network.NewLayer("hidden",
				network.NewChannel("h", "x").AddOperator(nn.NewDense(hidden, nn.Tanh))))
			net.AddLayer(network.NewLayer("out",
				network.NewChannel("y", "h").AddOperator(nn.NewDense(1, output))))

			data := train.NewClassDataset().
				Add([]float64{0, 0}, 0).
				Add([]float64{0, 1}, 1).
				Add([]float64{1, 0}, 1).
				Add([]float64{1, 1}, 0)

			logger := log.New(cmd.ErrOrStderr(), "", log.Ltime)
			trainer := train.NewTrainer(net, cfg, logger)
			res, err := trainer.Fit(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "trained %d epochs: loss %.6f, accuracy %.2f%%\n", res.Epochs, res.Loss, res.Accuracy*100)

			for i := 0; i < data.Count(); i++ {
				input, _ := data.Input(i)
				out, err := trainer.PredictOne(input)
				if err != nil {
					return err
				}
				class, _ := data.ExpectedClass(i)
				fmt.Fprintf(cmd.OutOrStdout(), "  %v -> %.4f (want %d)\n", input, out[0], class)
			}

			if save != "" {
				if err := net.Save(save); err != nil {
					return errors.WithMessage(err, "save")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved to %s\n", save)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&hidden, "hidden", 4, "hidden nodes")
	cmd.Flags().BoolVar(&entropy, "cross-entropy", false, "train the output with sigmoid cross-entropy")
	cmd.Flags().Float64Var(&cfg.LearningRate, "rate", 0.5, "learning rate")
	cmd.Flags().IntVar(&cfg.Epochs, "epochs", 10000, "maximum epochs")
	cmd.Flags().Float64Var(&cfg.TargetAccuracy, "target", 1, "stop at this accuracy")
	cmd.Flags().IntVar(&cfg.LogEvery, "log-every", 500, "log progress every N epochs (0 = never)")
	cmd.Flags().StringVar(&save, "save", "", "save the trained network (.json or .yaml)")
	return cmd
}
