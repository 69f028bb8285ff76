package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

// Parameter is a named block of learnable values together with its gradient
// accumulator.
//
// Values and Grad are flat views; for Dense they alias the backing arrays of
// the weight and accumulator matrices, so updates made here are visible to
// the matrix math and vice versa.
type Parameter struct {
	Name   string
	Values []float64
	Grad   []float64
}

// zeroGrad clears the accumulator.
func (p *Parameter) zeroGrad() {
	clear(p.Grad)
}

// update applies values = values*decay - rate*grad.
func (p *Parameter) update(rate, decay float64) {
	floats.Scale(decay, p.Values)
	floats.AddScaled(p.Values, -rate, p.Grad)
}

// checkGradients runs a central finite-difference check over every value of
// params, using loss as the objective.
//
// A parameter fails when |analytic - numeric| > tolerance * max(1, |numeric|),
// so that tolerance is absolute for small gradients and relative for large
// ones. Each value is restored after it has been perturbed.
func checkGradients(opName string, params []*Parameter, epsilon, tolerance float64, loss LossFunc) error {
	settings := &fd.Settings{Formula: fd.Central, Step: epsilon}

	var mismatches []Mismatch
	for _, p := range params {
		for i := range p.Values {
			original := p.Values[i]

			var lossErr error
			f := func(x float64) float64 {
				p.Values[i] = x
				l, err := loss()
				if err != nil && lossErr == nil {
					lossErr = err
				}
				return l
			}
			numeric := fd.Derivative(f, original, settings)
			p.Values[i] = original

			if lossErr != nil {
				return fmt.Errorf("%s: gradient check of %s[%d]: %w", opName, p.Name, i, lossErr)
			}

			analytic := p.Grad[i]
			if math.Abs(analytic-numeric) > tolerance*math.Max(1, math.Abs(numeric)) {
				mismatches = append(mismatches, Mismatch{
					Operator:  opName,
					Parameter: p.Name,
					Index:     i,
					Analytic:  analytic,
					Numeric:   numeric,
				})
			}
		}
	}

	if len(mismatches) > 0 {
		return &GradientCheckError{Mismatches: mismatches}
	}
	return nil
}
