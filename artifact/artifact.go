// Package artifact persists the selected model together with the metadata the
// serving side needs to build input vectors.
package artifact

import (
	"encoding/gob"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/houseprice/core/model"
	"github.com/YuminosukeSato/houseprice/ensemble"
	"github.com/YuminosukeSato/houseprice/linear"
	"github.com/YuminosukeSato/houseprice/metrics"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/tree"
)

func init() {
	gob.Register(&linear.LinearRegression{})
	gob.Register(&linear.Ridge{})
	gob.Register(&linear.Lasso{})
	gob.Register(&tree.DecisionTreeRegressor{})
	gob.Register(&ensemble.GradientBoostingRegressor{})
}

// Artifact is the single object written by a training run.
type Artifact struct {
	ID        string
	ModelName string
	Features  []string // order of the input vector expected by PredictOne
	Target    string
	Metrics   metrics.Report
	CreatedAt time.Time
	Model     model.Regressor
}

// New wraps a fitted model. It assigns a fresh run id and creation time.
func New(name string, m model.Regressor, features []string, target string, report metrics.Report) *Artifact {
	return &Artifact{
		ID:        uuid.NewString(),
		ModelName: name,
		Features:  append([]string(nil), features...),
		Target:    target,
		Metrics:   report,
		CreatedAt: time.Now().UTC(),
		Model:     m,
	}
}

// Validate checks that the artifact can serve predictions.
func (a *Artifact) Validate() error {
	if a.Model == nil {
		return errors.NewValueError("artifact.Validate", "artifact has no model")
	}
	if !a.Model.IsFitted() {
		return errors.NewNotFittedError(a.ModelName, "Predict")
	}
	if len(a.Features) == 0 {
		return errors.NewValueError("artifact.Validate", "artifact has no features")
	}
	return nil
}

// Save writes the artifact to path, replacing any previous file atomically.
func (a *Artifact) Save(path string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := model.SaveModel(a, path); err != nil {
		return errors.Wrapf(err, "save artifact %s", path)
	}
	return nil
}

// Load reads and validates an artifact.
func Load(path string) (*Artifact, error) {
	var a Artifact
	if err := model.LoadModel(&a, path); err != nil {
		return nil, errors.Wrapf(err, "load artifact %s", path)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// PredictOne predicts a single row given in Features order.
func (a *Artifact) PredictOne(values []float64) (float64, error) {
	if len(values) != len(a.Features) {
		return 0, errors.NewDimensionError("artifact.PredictOne", len(a.Features), len(values), 1)
	}
	out, err := a.Model.Predict(mat.NewDense(1, len(values), append([]float64(nil), values...)))
	if err != nil {
		return 0, err
	}
	return out.At(0, 0), nil
}

// Predict predicts every row of X.
func (a *Artifact) Predict(X mat.Matrix) ([]float64, error) {
	out, err := a.Model.Predict(X)
	if err != nil {
		return nil, err
	}
	return model.Column(out), nil
}
