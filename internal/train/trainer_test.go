package train

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepnet/internal/network"
	"github.com/born-ml/deepnet/internal/nn"
	"github.com/born-ml/deepnet/internal/parallel"
	"github.com/born-ml/deepnet/internal/tensor"
)

func netConfig(seed int64) network.Config {
	return network.Config{Parallel: parallel.Config{Enabled: false}, Seed: seed}
}

func xorNet(seed int64) *network.Network {
	net := network.New(netConfig(seed))
	net.AddInput("x", tensor.Shape{2})
	net.AddLayer(network.NewLayer("hidden",
		network.NewChannel("h", "x").AddOperator(nn.NewDense(8, nn.Tanh))))
	net.AddLayer(network.NewLayer("out",
		network.NewChannel("y", "h").AddOperator(nn.NewDense(1, nn.SigmoidCrossEntropy))))
	return net
}

// sigmoidXORNet is 2 inputs -> Dense(4, tanh) -> Dense(1, sigmoid) trained
// on squared error.
func sigmoidXORNet(seed int64) *network.Network {
	net := network.New(netConfig(seed))
	net.AddInput("x", tensor.Shape{2})
	net.AddLayer(network.NewLayer("hidden",
		network.NewChannel("h", "x").AddOperator(nn.NewDense(4, nn.Tanh))))
	net.AddLayer(network.NewLayer("out",
		network.NewChannel("y", "h").AddOperator(nn.NewDense(1, nn.Sigmoid))))
	return net
}

func xorData() *ClassDataset {
	return NewClassDataset().
		Add([]float64{0, 0}, 0).
		Add([]float64{0, 1}, 1).
		Add([]float64{1, 0}, 1).
		Add([]float64{1, 1}, 0)
}

// linearNet fits y = 2a - b + 0.5.
func linearNet(seed int64) *network.Network {
	net := network.New(netConfig(seed))
	net.AddInput("ab", tensor.Shape{2})
	net.AddLayer(network.NewLayer("out",
		network.NewChannel("y", "ab").AddOperator(nn.NewDense(1, nn.Identity))))
	return net
}

func linearData() *Dataset {
	d := NewDataset()
	for _, a := range []float64{-1, -0.5, 0, 0.5, 1} {
		for _, b := range []float64{-1, 0, 1} {
			d.Add([]float64{a, b}, []float64{2*a - b + 0.5})
		}
	}
	return d
}

func TestFit_XOR(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LearningRate = 0.5
	cfg.Epochs = 5000
	cfg.TargetAccuracy = 1

	var res FitResult
	for seed := int64(1); seed <= 5; seed++ {
		tr := NewTrainer(xorNet(seed), cfg, nil)
		var err error
		res, err = tr.Fit(xorData())
		require.NoError(t, err)
		if res.Accuracy == 1 {
			for i, want := range []int{0, 1, 1, 0} {
				input, err := xorData().Input(i)
				require.NoError(t, err)
				got, err := tr.ClassifyOne(input)
				require.NoError(t, err)
				assert.Equal(t, want, got, "sample %d", i)
			}
			break
		}
	}
	assert.Equal(t, 1.0, res.Accuracy)
	assert.Less(t, res.Epochs, cfg.Epochs, "Fit should stop once the target is met")
}

func TestFit_XORSigmoid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LearningRate = 0.5
	cfg.Epochs = 10000
	cfg.TargetAccuracy = 1

	tr := NewTrainer(sigmoidXORNet(1), cfg, nil)
	res, err := tr.Fit(xorData())
	require.NoError(t, err)
	require.Equal(t, 1.0, res.Accuracy)
	assert.Less(t, res.Epochs, cfg.Epochs)

	data := xorData()
	for i := 0; i < data.Count(); i++ {
		input, err := data.Input(i)
		require.NoError(t, err)
		want, err := data.ExpectedClass(i)
		require.NoError(t, err)
		got, err := tr.ClassifyOne(input)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %v", input)
	}
}

func TestEpoch_LinearRegression(t *testing.T) {
	for _, batch := range []int{1, 4, 15} {
		cfg := DefaultConfig()
		cfg.BatchSize = batch
		tr := NewTrainer(linearNet(3), cfg, nil)
		data := linearData()

		before, err := tr.TestRegression(data)
		require.NoError(t, err)

		var loss float64
		for epoch := 0; epoch < 2000; epoch++ {
			loss, err = tr.Epoch(data)
			require.NoError(t, err)
		}
		after, err := tr.TestRegression(data)
		require.NoError(t, err)

		assert.Less(t, after, before, "batch %d", batch)
		assert.Less(t, after, 1e-3, "batch %d", batch)
		assert.Less(t, loss, 1e-6, "batch %d", batch)

		out, err := tr.PredictOne([]float64{0.25, -0.5})
		require.NoError(t, err)
		assert.InDelta(t, 1.5, out[0], 1e-2, "batch %d", batch)
	}
}

func TestTrainOne_ReducesLoss(t *testing.T) {
	tr := NewTrainer(linearNet(7), DefaultConfig(), nil)
	input, expected := []float64{1, -1}, []float64{3.5}

	first, err := tr.TrainOne(input, expected)
	require.NoError(t, err)
	var last float64
	for i := 0; i < 50; i++ {
		last, err = tr.TrainOne(input, expected)
		require.NoError(t, err)
	}
	assert.Less(t, last, first)
}

func TestTrainOne_WeightDecayShrinksWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LearningRate = 0
	cfg.WeightDecay = 0.5

	tr := NewTrainer(linearNet(4), cfg, nil)
	before, err := tr.PredictOne([]float64{1, 1})
	require.NoError(t, err)

	_, err = tr.TrainOne([]float64{1, 1}, []float64{0})
	require.NoError(t, err)

	after, err := tr.PredictOne([]float64{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, before[0]*0.5, after[0], 1e-12)
}

func TestTrainClassOne(t *testing.T) {
	tr := NewTrainer(xorNet(2), DefaultConfig(), nil)
	_, err := tr.TrainClassOne([]float64{0, 1}, 1)
	require.NoError(t, err)

	_, err = tr.TrainClassOne([]float64{0, 1}, 2)
	assert.ErrorIs(t, err, network.ErrInvalidClass)
}

func TestFit_Logs(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Epochs = 4
	cfg.LogEvery = 2

	tr := NewTrainer(linearNet(1), cfg, log.New(&buf, "", 0))
	res, err := tr.Fit(linearData())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Epochs)
	assert.Equal(t, -1.0, res.Accuracy)
	assert.Contains(t, buf.String(), "epoch 2: loss")
	assert.Contains(t, buf.String(), "epoch 4: loss")
	assert.NotContains(t, buf.String(), "epoch 3")
}

func TestFit_LogsAccuracy(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Epochs = 1
	cfg.LogEvery = 1

	tr := NewTrainer(xorNet(1), cfg, log.New(&buf, "", 0))
	res, err := tr.Fit(xorData())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Accuracy, 0.0)
	assert.Contains(t, buf.String(), "accuracy")
}

type inputsOnly struct{}

func (inputsOnly) Count() int                   { return 1 }
func (inputsOnly) Input(int) ([]float64, error) { return []float64{0, 0}, nil }

func TestTrainer_Errors(t *testing.T) {
	tr := NewTrainer(linearNet(1), DefaultConfig(), nil)

	_, err := tr.Epoch(NewDataset())
	assert.ErrorIs(t, err, ErrEmptyProvider)

	_, err = tr.TestClassification(NewClassDataset())
	assert.ErrorIs(t, err, ErrEmptyProvider)

	_, err = tr.TestRegression(NewDataset())
	assert.ErrorIs(t, err, ErrEmptyProvider)

	_, err = tr.Epoch(inputsOnly{})
	assert.ErrorIs(t, err, ErrNoTargets)

	_, err = tr.TrainOne([]float64{1, 2, 3}, []float64{0})
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = tr.TrainOne([]float64{1, 2}, []float64{0, 1})
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = tr.Epoch(NewDataset().Add([]float64{1}, []float64{0}))
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "sample 0")
}

func TestDataset_Index(t *testing.T) {
	d := NewDataset().Add([]float64{1, 2}, []float64{3})
	assert.Equal(t, 1, d.Count())

	_, err := d.Input(1)
	assert.ErrorIs(t, err, ErrSampleIndex)
	_, err = d.Expected(-1)
	assert.ErrorIs(t, err, ErrSampleIndex)

	c := NewClassDataset().Add([]float64{1}, 4)
	class, err := c.ExpectedClass(0)
	require.NoError(t, err)
	assert.Equal(t, 4, class)
	_, err = c.ExpectedClass(1)
	assert.ErrorIs(t, err, ErrSampleIndex)
}

func TestDataset_CopiesSamples(t *testing.T) {
	input := []float64{1, 2}
	d := NewDataset().Add(input, []float64{0})
	input[0] = 9

	got, err := d.Input(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got)
}
