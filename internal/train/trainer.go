package train

import (
	"log"
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/deepnet/internal/network"
)

// Config holds training hyperparameters.
type Config struct {
	LearningRate float64 // Step size (default: 0.1)
	// WeightDecay multiplies every parameter before the gradient step:
	// p = p*WeightDecay - rate*gradient. 1 disables decay.
	WeightDecay    float64
	BatchSize      int     // Samples per weight update in Epoch (default: 1, online)
	Epochs         int     // Upper bound for Fit (default: 1000)
	TargetAccuracy float64 // Fit stops once classification accuracy reaches it (0 disables)
	LogEvery       int     // Log progress every N epochs in Fit (0 disables)
}

// DefaultConfig returns online training with rate 0.1 and no decay.
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.1,
		WeightDecay:  1,
		BatchSize:    1,
		Epochs:       1000,
	}
}

// FitResult summarizes a Fit run.
type FitResult struct {
	Epochs   int     // Epochs run
	Loss     float64 // Mean sample loss of the last epoch
	Accuracy float64 // Classification accuracy after the last epoch, or -1 for regression
}

// Trainer trains one network.
type Trainer struct {
	net    *network.Network
	cfg    Config
	logger *log.Logger
}

// NewTrainer creates a trainer. logger may be nil to train silently.
func NewTrainer(net *network.Network, cfg Config, logger *log.Logger) *Trainer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	return &Trainer{net: net, cfg: cfg, logger: logger}
}

// Network returns the trained network.
func (t *Trainer) Network() *network.Network {
	return t.net
}

func (t *Trainer) logf(format string, args ...any) {
	if t.logger != nil {
		t.logger.Printf(format, args...)
	}
}

// accumulate runs one sample forward and backward without updating weights
// and returns its loss.
func (t *Trainer) accumulate(input, expected []float64) (float64, error) {
	if err := t.net.SetInputs(input); err != nil {
		return 0, err
	}
	if _, err := t.net.FeedForward(); err != nil {
		return 0, err
	}
	loss, err := t.net.Loss(expected)
	if err != nil {
		return 0, err
	}
	if err := t.net.BackPropagate(expected); err != nil {
		return 0, err
	}
	return loss, nil
}

// TrainOne performs one online update on a single sample and returns the
// loss measured before the update.
func (t *Trainer) TrainOne(input, expected []float64) (float64, error) {
	if err := t.net.StartBatch(); err != nil {
		return 0, err
	}
	loss, err := t.accumulate(input, expected)
	if err != nil {
		return 0, err
	}
	if err := t.net.UpdateWeights(t.cfg.LearningRate, t.cfg.WeightDecay); err != nil {
		return 0, err
	}
	return loss, nil
}

// TrainClassOne performs one online update towards the target vector of
// class.
func (t *Trainer) TrainClassOne(input []float64, class int) (float64, error) {
	expected, err := t.net.ClassExpectation(class)
	if err != nil {
		return 0, err
	}
	return t.TrainOne(input, expected)
}

// TrainBatch accumulates the gradients of the given samples and applies one
// update with the learning rate divided by the batch size. It returns the
// mean sample loss.
func (t *Trainer) TrainBatch(p Provider, indices []int) (float64, error) {
	if len(indices) == 0 {
		return 0, nil
	}
	if err := t.net.StartBatch(); err != nil {
		return 0, err
	}

	var total float64
	for _, i := range indices {
		input, expected, err := t.sample(p, i)
		if err != nil {
			return 0, err
		}
		loss, err := t.accumulate(input, expected)
		if err != nil {
			return 0, errors.WithMessagef(err, "sample %d", i)
		}
		total += loss
	}

	rate := t.cfg.LearningRate / float64(len(indices))
	if err := t.net.UpdateWeights(rate, t.cfg.WeightDecay); err != nil {
		return 0, err
	}
	return total / float64(len(indices)), nil
}

// Epoch trains over every sample once, in provider order, in batches of
// BatchSize. It returns the mean sample loss.
func (t *Trainer) Epoch(p Provider) (float64, error) {
	n := p.Count()
	if n == 0 {
		return 0, ErrEmptyProvider
	}

	var total float64
	for _, batch := range lo.Chunk(lo.Range(n), t.cfg.BatchSize) {
		loss, err := t.TrainBatch(p, batch)
		if err != nil {
			return 0, err
		}
		total += loss * float64(len(batch))
	}
	return total / float64(n), nil
}

// Fit runs epochs until Epochs is reached or, for class providers with a
// TargetAccuracy, the accuracy target is met.
func (t *Trainer) Fit(p Provider) (FitResult, error) {
	res := FitResult{Accuracy: -1}
	cp, classes := p.(ClassProvider)

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		loss, err := t.Epoch(p)
		if err != nil {
			return res, errors.WithMessagef(err, "epoch %d", epoch)
		}
		res.Epochs = epoch
		res.Loss = loss

		if classes {
			if res.Accuracy, err = t.TestClassification(cp); err != nil {
				return res, err
			}
		}
		if t.cfg.LogEvery > 0 && epoch%t.cfg.LogEvery == 0 {
			if classes {
				t.logf("epoch %d: loss %.6f, accuracy %.2f%%", epoch, loss, res.Accuracy*100)
			} else {
				t.logf("epoch %d: loss %.6f", epoch, loss)
			}
		}
		if classes && t.cfg.TargetAccuracy > 0 && res.Accuracy >= t.cfg.TargetAccuracy {
			t.logf("target accuracy %.2f%% reached after %d epochs", t.cfg.TargetAccuracy*100, epoch)
			break
		}
	}
	return res, nil
}

// PredictOne returns the network output for input.
func (t *Trainer) PredictOne(input []float64) ([]float64, error) {
	if err := t.net.SetInputs(input); err != nil {
		return nil, err
	}
	return t.net.FeedForward()
}

// ClassifyOne returns the class the network assigns to input.
func (t *Trainer) ClassifyOne(input []float64) (int, error) {
	if _, err := t.PredictOne(input); err != nil {
		return 0, err
	}
	return t.net.ResultClass(), nil
}

// TestClassification returns the fraction of samples classified correctly.
func (t *Trainer) TestClassification(p ClassProvider) (float64, error) {
	n := p.Count()
	if n == 0 {
		return 0, ErrEmptyProvider
	}
	correct := 0
	for i := 0; i < n; i++ {
		input, err := p.Input(i)
		if err != nil {
			return 0, err
		}
		want, err := p.ExpectedClass(i)
		if err != nil {
			return 0, err
		}
		got, err := t.ClassifyOne(input)
		if err != nil {
			return 0, errors.WithMessagef(err, "sample %d", i)
		}
		if got == want {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// TestRegression returns the root-mean-square error over every output value
// of every sample.
func (t *Trainer) TestRegression(p SampleProvider) (float64, error) {
	n := p.Count()
	if n == 0 {
		return 0, ErrEmptyProvider
	}
	var sum float64
	values := 0
	for i := 0; i < n; i++ {
		input, expected, err := t.sample(p, i)
		if err != nil {
			return 0, err
		}
		out, err := t.PredictOne(input)
		if err != nil {
			return 0, errors.WithMessagef(err, "sample %d", i)
		}
		d := floats.Distance(out, expected, 2)
		sum += d * d
		values += len(out)
	}
	return math.Sqrt(sum / float64(values)), nil
}

// sample fetches input and target of sample i. Expected vectors take
// precedence; class providers are mapped through the network's class
// expectation.
func (t *Trainer) sample(p Provider, i int) ([]float64, []float64, error) {
	input, err := p.Input(i)
	if err != nil {
		return nil, nil, err
	}
	switch sp := p.(type) {
	case SampleProvider:
		expected, err := sp.Expected(i)
		if err != nil {
			return nil, nil, err
		}
		return input, expected, nil
	case ClassProvider:
		class, err := sp.ExpectedClass(i)
		if err != nil {
			return nil, nil, err
		}
		expected, err := t.net.ClassExpectation(class)
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "sample %d", i)
		}
		return input, expected, nil
	default:
		return nil, nil, ErrNoTargets
	}
}
