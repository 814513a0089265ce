package forest

import (
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Artifact bundles a fitted ensemble with the run metadata needed to
// reproduce or audit it. It is the unit of model persistence.
type Artifact struct {
	RunID    string
	Created  time.Time
	Fraction float64
	Balance  float64
	Model    *Classifier
}

// NewArtifact stamps a fitted model with a fresh run id.
func NewArtifact(c *Classifier, fraction, balance float64) *Artifact {
	return &Artifact{
		RunID:    uuid.New().String(),
		Created:  time.Now().UTC(),
		Fraction: fraction,
		Balance:  balance,
		Model:    c,
	}
}

// SaveGob persists the artifact.
func (a *Artifact) SaveGob(fp string) error {
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf("Artifact.SaveGob %s: %w", fp, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(a); err != nil {
		return fmt.Errorf("Artifact.SaveGob %s: %w", fp, err)
	}
	return nil
}

// LoadGobArtifact reloads a persisted model artifact.
func LoadGobArtifact(fp string) (*Artifact, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf("LoadGobArtifact %s: %w", fp, err)
	}
	defer f.Close()
	var a Artifact
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("LoadGobArtifact %s: %w", fp, err)
	}
	return &a, nil
}
