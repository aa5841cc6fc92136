package classifier

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is a fitted multinomial logistic regression.
// Coef has one row per class over the vectorizer's features.
type LogisticRegression struct {
	Classes   []string
	Coef      [][]float64
	Intercept []float64
}

// fitStats describes how the optimizer terminated
type fitStats struct {
	Iterations int
	Status     optimize.Status
	Err        error
}

// fitLogisticRegression minimizes the mean cross-entropy plus an L2 penalty
// of 1/(2*C*n)*||W||^2 (intercepts unpenalized) with L-BFGS from a zero start.
// When the optimizer stops early, the best parameters seen are kept.
func fitLogisticRegression(X []SparseVector, y []int, classes []string, dim int, opts Options) (*LogisticRegression, fitStats) {
	k := len(classes)
	model := &LogisticRegression{
		Classes:   classes,
		Coef:      make([][]float64, k),
		Intercept: make([]float64, k),
	}
	for c := range model.Coef {
		model.Coef[c] = make([]float64, dim)
	}
	if k < 2 {
		return model, fitStats{Status: optimize.Success}
	}

	n := float64(len(X))
	lambda := 1 / (opts.C * n)
	nWeights := k * dim

	objective := func(params, grad []float64) float64 {
		if grad != nil {
			for i := range grad {
				grad[i] = 0
			}
		}

		scores := make([]float64, k)
		var loss float64
		for i, x := range X {
			for c := 0; c < k; c++ {
				s := params[nWeights+c]
				row := params[c*dim : (c+1)*dim]
				for j, idx := range x.Indices {
					s += row[idx] * x.Values[j]
				}
				scores[c] = s
			}

			lse := floats.LogSumExp(scores)
			loss += lse - scores[y[i]]

			if grad == nil {
				continue
			}
			for c := 0; c < k; c++ {
				p := math.Exp(scores[c] - lse)
				if c == y[i] {
					p--
				}
				p /= n
				row := grad[c*dim : (c+1)*dim]
				for j, idx := range x.Indices {
					row[idx] += p * x.Values[j]
				}
				grad[nWeights+c] += p
			}
		}
		loss /= n

		var reg float64
		for i := 0; i < nWeights; i++ {
			reg += params[i] * params[i]
			if grad != nil {
				grad[i] += lambda * params[i]
			}
		}
		return loss + 0.5*lambda*reg
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return objective(x, nil)
		},
		Grad: func(grad, x []float64) {
			objective(x, grad)
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   opts.MaxIterations,
		GradientThreshold: opts.Tolerance,
	}

	x0 := make([]float64, nWeights+k)
	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})

	stats := fitStats{Err: err}
	params := x0
	if result != nil {
		stats.Iterations = result.MajorIterations
		stats.Status = result.Status
		if len(result.X) == len(x0) {
			params = result.X
		}
	}

	for c := 0; c < k; c++ {
		copy(model.Coef[c], params[c*dim:(c+1)*dim])
		model.Intercept[c] = params[nWeights+c]
	}
	return model, stats
}

// Scores returns the linear decision value of each class for x
func (m *LogisticRegression) Scores(x SparseVector) []float64 {
	scores := make([]float64, len(m.Classes))
	for c := range m.Classes {
		s := m.Intercept[c]
		for j, idx := range x.Indices {
			s += m.Coef[c][idx] * x.Values[j]
		}
		scores[c] = s
	}
	return scores
}

// PredictIndex returns the index of the highest scoring class.
// Ties resolve to the lowest index.
func (m *LogisticRegression) PredictIndex(x SparseVector) int {
	scores := m.Scores(x)
	best := 0
	for c := 1; c < len(scores); c++ {
		if scores[c] > scores[best] {
			best = c
		}
	}
	return best
}
