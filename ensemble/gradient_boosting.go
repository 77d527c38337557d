// Package ensemble provides gradient-boosted regression trees.
package ensemble

import (
	"github.com/YuminosukeSato/houseprice/core/model"
	"github.com/YuminosukeSato/houseprice/metrics"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/tree"
	"gonum.org/v1/gonum/mat"
)

// Option configures a GradientBoostingRegressor
type Option func(*GradientBoostingRegressor)

// WithNEstimators sets the number of boosting stages
func WithNEstimators(n int) Option {
	return func(g *GradientBoostingRegressor) {
		g.NEstimators = n
	}
}

// WithLearningRate sets the shrinkage applied to each tree
func WithLearningRate(lr float64) Option {
	return func(g *GradientBoostingRegressor) {
		g.LearningRate = lr
	}
}

// WithMaxDepth sets the depth of each tree
func WithMaxDepth(depth int) Option {
	return func(g *GradientBoostingRegressor) {
		g.MaxDepth = depth
	}
}

// GradientBoostingRegressor fits regression trees to the residuals of the
// running prediction under squared-error loss. The initial prediction is the
// training mean.
type GradientBoostingRegressor struct {
	model.BaseEstimator
	NEstimators  int
	LearningRate float64
	MaxDepth     int

	Init  float64
	Trees []*tree.DecisionTreeRegressor
	// TrainLoss[i] is the mean squared error on the training set after stage i
	TrainLoss []float64
}

// NewGradientBoostingRegressor creates a regressor with 100 stages,
// learning rate 0.1 and depth-3 trees unless overridden.
func NewGradientBoostingRegressor(opts ...Option) *GradientBoostingRegressor {
	g := &GradientBoostingRegressor{
		NEstimators:  100,
		LearningRate: 0.1,
		MaxDepth:     3,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fit runs NEstimators boosting stages.
func (g *GradientBoostingRegressor) Fit(X, y mat.Matrix) error {
	rows, cols, err := model.CheckFitInput("GradientBoostingRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if g.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", g.NEstimators)
	}
	if g.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", g.LearningRate)
	}
	g.Reset()

	target := model.Column(y)
	init := 0.0
	for _, v := range target {
		init += v
	}
	init /= float64(rows)

	current := make([]float64, rows)
	for i := range current {
		current[i] = init
	}
	fitted := mat.NewVecDense(rows, current)
	residual := mat.NewDense(rows, 1, nil)
	trees := make([]*tree.DecisionTreeRegressor, 0, g.NEstimators)
	losses := make([]float64, 0, g.NEstimators)

	for stage := 0; stage < g.NEstimators; stage++ {
		for i := 0; i < rows; i++ {
			residual.Set(i, 0, target[i]-current[i])
		}
		t := tree.NewDecisionTreeRegressor(tree.WithMaxDepth(g.MaxDepth))
		if err := t.Fit(X, residual); err != nil {
			return errors.NewModelError("GradientBoostingRegressor.Fit", "stage fit failed", err)
		}
		update, err := t.Predict(X)
		if err != nil {
			return errors.NewModelError("GradientBoostingRegressor.Fit", "stage predict failed", err)
		}

		for i := 0; i < rows; i++ {
			current[i] += g.LearningRate * update.At(i, 0)
		}
		loss, err := metrics.MSEMatrix(y, fitted)
		if err != nil {
			return errors.NewModelError("GradientBoostingRegressor.Fit", "stage loss failed", err)
		}
		if err := errors.CheckScalar("GradientBoostingRegressor.Fit", loss, stage); err != nil {
			return err
		}
		trees = append(trees, t)
		losses = append(losses, loss)
	}

	g.Init = init
	g.Trees = trees
	g.TrainLoss = losses
	g.SetFitted(cols)
	return nil
}

// Predict returns Init plus the shrunken sum of every tree's prediction.
func (g *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := g.CheckPredict("GradientBoostingRegressor", c); err != nil {
		return nil, err
	}
	out := mat.NewDense(r, 1, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		pred := g.Init
		for _, t := range g.Trees {
			pred += g.LearningRate * t.PredictRow(row)
		}
		out.Set(i, 0, pred)
	}
	return out, nil
}
