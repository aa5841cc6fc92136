// Package classifier maps normalized query text to a law section with a
// TF-IDF vectorizer feeding a multinomial logistic regression.
package classifier

import (
	"errors"
	"sort"

	"cyberlaw-backend/models"

	"go.uber.org/zap"
)

// ErrNoExamples is returned when training is attempted without data
var ErrNoExamples = errors.New("no training examples")

const (
	DefaultMaxIterations = 1000
	DefaultC             = 1.0
	DefaultTolerance     = 1e-4
)

// Options configures training
type Options struct {
	MaxIterations int     // optimizer iteration cap
	C             float64 // inverse L2 regularization strength
	Tolerance     float64 // gradient infinity-norm stopping threshold
	Logger        *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.C <= 0 {
		o.C = DefaultC
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Model is a fitted classification pipeline. It is never modified after
// Train or Decode and is safe for concurrent use.
type Model struct {
	Vectorizer *Vectorizer
	Classifier *LogisticRegression
	// Fallback is returned for text with no known token: the most frequent
	// training label, ties broken lexicographically.
	Fallback string
}

// Train fits a model on examples. Training is deterministic for a given
// input. Hitting the iteration cap is not an error.
func Train(examples []models.TrainingExample, opts Options) (*Model, error) {
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}
	opts = opts.withDefaults()

	docs := make([]string, len(examples))
	counts := make(map[string]int)
	for i, ex := range examples {
		docs[i] = ex.NormalizedText
		counts[ex.Label]++
	}

	classes := make([]string, 0, len(counts))
	for label := range counts {
		classes = append(classes, label)
	}
	sort.Strings(classes)

	classIndex := make(map[string]int, len(classes))
	fallback := classes[0]
	for i, label := range classes {
		classIndex[label] = i
		if counts[label] > counts[fallback] {
			fallback = label
		}
	}

	vectorizer := FitVectorizer(docs)
	X := make([]SparseVector, len(docs))
	y := make([]int, len(docs))
	for i, doc := range docs {
		X[i] = vectorizer.Transform(doc)
		y[i] = classIndex[examples[i].Label]
	}

	lr, stats := fitLogisticRegression(X, y, classes, vectorizer.Dim(), opts)

	fields := []zap.Field{
		zap.Int("examples", len(examples)),
		zap.Int("classes", len(classes)),
		zap.Int("features", vectorizer.Dim()),
		zap.Int("iterations", stats.Iterations),
		zap.String("status", stats.Status.String()),
	}
	if stats.Err != nil {
		opts.Logger.Warn("classifier optimizer stopped early, keeping best coefficients",
			append(fields, zap.Error(stats.Err))...)
	} else {
		opts.Logger.Info("classifier trained", fields...)
	}

	return &Model{
		Vectorizer: vectorizer,
		Classifier: lr,
		Fallback:   fallback,
	}, nil
}

// Predict returns the best matching section for normalized text
func (m *Model) Predict(text string) string {
	x := m.Vectorizer.Transform(text)
	if len(x.Indices) == 0 {
		return m.Fallback
	}
	return m.Classifier.Classes[m.Classifier.PredictIndex(x)]
}

// Classes returns the labels the model can produce
func (m *Model) Classes() []string {
	out := make([]string, len(m.Classifier.Classes))
	copy(out, m.Classifier.Classes)
	return out
}
