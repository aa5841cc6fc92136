package classifier

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"cyberlaw-backend/models"
	"cyberlaw-backend/storage"

	"go.uber.org/zap"
)

// DefaultModelKey is where the trained model is cached in the artifact store
const DefaultModelKey = "models/cyber_laws_classifier.gob"

const modelFormatVersion = 1

type modelEnvelope struct {
	Version int
	Model   *Model
}

// Encode writes m as a versioned gob blob. Float weights round-trip exactly.
func Encode(w io.Writer, m *Model) error {
	if m == nil || m.Vectorizer == nil || m.Classifier == nil {
		return errors.New("cannot encode incomplete model")
	}
	if err := gob.NewEncoder(w).Encode(modelEnvelope{Version: modelFormatVersion, Model: m}); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// Decode reads a model written by Encode
func Decode(r io.Reader) (*Model, error) {
	var env modelEnvelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if env.Version != modelFormatVersion {
		return nil, fmt.Errorf("unsupported model format version %d", env.Version)
	}

	m := env.Model
	if m == nil || m.Vectorizer == nil || m.Classifier == nil {
		return nil, errors.New("model artifact is incomplete")
	}
	if m.Vectorizer.Vocabulary == nil {
		m.Vectorizer.Vocabulary = map[string]int{}
	}

	if err := validate(m); err != nil {
		return nil, fmt.Errorf("model artifact is corrupt: %w", err)
	}
	return m, nil
}

// validate checks that every index the model can dereference is in range
func validate(m *Model) error {
	k, dim := len(m.Classifier.Classes), m.Vectorizer.Dim()
	if k == 0 || len(m.Classifier.Coef) != k || len(m.Classifier.Intercept) != k {
		return fmt.Errorf("inconsistent class count %d", k)
	}
	for c := range m.Classifier.Coef {
		if len(m.Classifier.Coef[c]) != dim {
			return fmt.Errorf("%d weights for class %d, want %d", len(m.Classifier.Coef[c]), c, dim)
		}
	}

	if len(m.Vectorizer.Vocabulary) != dim {
		return fmt.Errorf("%d vocabulary terms for %d idf weights", len(m.Vectorizer.Vocabulary), dim)
	}
	seen := make([]bool, dim)
	for term, idx := range m.Vectorizer.Vocabulary {
		if idx < 0 || idx >= dim {
			return fmt.Errorf("term %q has feature index %d outside [0, %d)", term, idx, dim)
		}
		if seen[idx] {
			return fmt.Errorf("feature index %d assigned twice", idx)
		}
		seen[idx] = true
	}

	if m.Fallback == "" {
		return errors.New("missing fallback class")
	}
	for _, class := range m.Classifier.Classes {
		if class == m.Fallback {
			return nil
		}
	}
	return fmt.Errorf("fallback class %q is not a model class", m.Fallback)
}

// Save encodes m and stores it under key
func Save(ctx context.Context, store storage.Storage, key string, m *Model) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return "", err
	}
	location, err := store.Put(ctx, key, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to store model artifact: %w", err)
	}
	return location, nil
}

// Load reads the model stored under key. A missing artifact yields an error
// wrapping storage.ErrNotFound.
func Load(ctx context.Context, store storage.Storage, key string) (*Model, error) {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	m, err := Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", key, err)
	}
	return m, nil
}

// LoadOrTrain returns the model cached under key, training and storing a new
// one only when no artifact exists. The cache is keyed by location alone: a
// changed dataset is not detected until the artifact is deleted.
func LoadOrTrain(ctx context.Context, store storage.Storage, key string, examples []models.TrainingExample, opts Options) (*Model, bool, error) {
	opts = opts.withDefaults()

	m, err := Load(ctx, store, key)
	if err == nil {
		opts.Logger.Info("classifier loaded from artifact", zap.String("key", key))
		return m, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to load model artifact: %w", err)
	}

	opts.Logger.Info("no model artifact found, training classifier", zap.String("key", key))
	m, err = Train(examples, opts)
	if err != nil {
		return nil, false, err
	}

	location, err := Save(ctx, store, key, m)
	if err != nil {
		return nil, false, err
	}
	opts.Logger.Info("classifier artifact stored", zap.String("location", location))

	return m, true, nil
}
